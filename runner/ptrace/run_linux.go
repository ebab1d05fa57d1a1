//go:build linux && (amd64 || arm64)

package ptrace

import (
	"context"
	"fmt"

	"github.com/criyle/go-stracer/pkg/forkexec"
	"github.com/criyle/go-stracer/pkg/seccomp"
	"github.com/criyle/go-stracer/pkg/syscalls"
	"github.com/criyle/go-stracer/pkg/tracefilter"
	"github.com/criyle/go-stracer/ptracer"
	"github.com/criyle/go-stracer/runner"
)

// Run starts the tracee and traces it until it terminates or c is canceled
func (r *Runner) Run(c context.Context) runner.Result {
	if len(r.Args) == 0 {
		return runner.Result{
			Status: runner.StatusLaunchError,
			Error:  forkexec.ErrEmptyArgs.Error(),
		}
	}

	catalog := r.Catalog
	if catalog == nil {
		var err error
		if catalog, err = syscalls.Native(); err != nil {
			return runner.Result{
				Status: runner.StatusTracerError,
				Error:  err.Error(),
			}
		}
	}

	ch := &forkexec.Runner{
		Args:   r.Args,
		Env:    r.Env,
		Path:   forkexec.LookPath(r.Args[0]),
		Ptrace: true,
	}
	if r.Seccomp {
		filter, err := buildFilter(r.Filter)
		if err != nil {
			return runner.Result{
				Status: runner.StatusTracerError,
				Error:  err.Error(),
			}
		}
		ch.Seccomp = filter.SockFprog()
	}

	tracer := &ptracer.Tracer{
		Handler: r.Handler,
		Runner:  ch,
		Catalog: catalog,
		Seccomp: r.Seccomp,
		Log:     r.Log,
	}
	// a nil *Filter must not become a non-nil interface
	if r.Filter != nil {
		tracer.Filter = r.Filter
	}
	return tracer.TraceRun(c)
}

// buildFilter builds the seccomp prefilter returning SECCOMP_RET_TRACE for
// every syscall the filter may report
func buildFilter(f *tracefilter.Filter) (seccomp.Filter, error) {
	b := builderFor(f)
	filter, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("seccomp prefilter: %w", err)
	}
	return filter, nil
}

func builderFor(f *tracefilter.Filter) seccomp.Builder {
	mode := tracefilter.ModeAll
	if f != nil {
		mode = f.Mode()
	}
	switch mode {
	case tracefilter.ModeInclude:
		return seccomp.Builder{
			Trace:   f.Spec().Include,
			Default: seccomp.ActionAllow,
		}
	case tracefilter.ModeExclude:
		return seccomp.Builder{
			Allow:   f.Spec().Exclude,
			Default: seccomp.ActionTrace,
		}
	default:
		return seccomp.Builder{
			Default: seccomp.ActionTrace,
		}
	}
}
