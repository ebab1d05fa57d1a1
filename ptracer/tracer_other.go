//go:build !linux || !(amd64 || arm64)

package ptracer

import (
	"context"
	"runtime"

	"github.com/criyle/go-stracer/runner"
)

type ptraceOps interface{}

// TraceRun returns a tracer error without starting the runner
func (t *Tracer) TraceRun(c context.Context) runner.Result {
	return runner.Result{
		Status: runner.StatusTracerError,
		Error:  "ptrace tracing is not supported on " + runtime.GOOS + "/" + runtime.GOARCH,
	}
}
