// Package ptrace wires the launcher, the seccomp prefilter and the tracer
// loop into a runner.Runner.
package ptrace

import (
	"github.com/sirupsen/logrus"

	"github.com/criyle/go-stracer/pkg/syscalls"
	"github.com/criyle/go-stracer/pkg/tracefilter"
	"github.com/criyle/go-stracer/ptracer"
)

// Runner defines how to trace a program by ptracer
type Runner struct {
	// argv and env for the child process
	// Args[0] is resolved through PATH
	Args []string
	Env  []string

	// Catalog resolves syscall numbers, syscalls.Native() if nil
	Catalog *syscalls.Catalog

	// Filter selects the reported syscalls, report all if nil
	Filter *tracefilter.Filter

	// Seccomp loads a filter into the tracee so that only traced syscalls
	// stop it
	Seccomp bool

	// Traced syscall handler
	Handler ptracer.Handler

	// Log receives tracer debug output
	Log logrus.FieldLogger
}
