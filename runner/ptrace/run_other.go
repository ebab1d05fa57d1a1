//go:build !linux || !(amd64 || arm64)

package ptrace

import (
	"context"

	"github.com/criyle/go-stracer/ptracer"
	"github.com/criyle/go-stracer/runner"
)

// Run reports a tracer error, tracing needs linux on amd64 or arm64
func (r *Runner) Run(c context.Context) runner.Result {
	t := &ptracer.Tracer{Log: r.Log}
	return t.TraceRun(c)
}
