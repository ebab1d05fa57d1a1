// Package ptracer drives a single tracee through its syscall stops with
// ptrace and reports every syscall entry and exit that passes a filter.
package ptracer

import (
	"github.com/sirupsen/logrus"
)

// Tracer defines a ptracer instance
type Tracer struct {
	Handler
	Runner
	Catalog Catalog
	Filter  Filter

	// Seccomp is set when the tracee loads a seccomp filter returning
	// SECCOMP_RET_TRACE for the traced syscalls. Entries are then seen as
	// seccomp stops and the tracee runs freely between traced syscalls.
	Seccomp bool

	// Log receives debug output, logrus.StandardLogger() if nil
	Log logrus.FieldLogger

	// ops is overridden in tests
	ops ptraceOps
}

// Runner represents the process runner
type Runner interface {
	// Starts starts the child process and return pid and error if failed
	Start() (int, error)
}

// ChildErrorer is implemented by runners that can tell why the child
// terminated before execve
type ChildErrorer interface {
	ChildError() error
}

// Handler receives the syscall events that passed the filter
type Handler interface {
	Report(Event)
}

// Catalog resolves syscall numbers to names
type Catalog interface {
	Name(nr int) (string, bool)
}

// Filter decides whether a decoded syscall is reported
type Filter interface {
	ShouldTraceEvent(name string, known bool) bool
}

func (t *Tracer) log() logrus.FieldLogger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}
