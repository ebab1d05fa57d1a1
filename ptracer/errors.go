package ptracer

import (
	"errors"
	"fmt"
)

// ErrUnsupportedStop is the cause of a FatalTraceError raised on a wait
// status the tracer did not ask for
var ErrUnsupportedStop = errors.New("unsupported stop")

// FatalTraceError aborts the session, the tracer can no longer trust its
// view of the tracee
type FatalTraceError struct {
	Op  string
	Pid int
	Err error
}

func (e *FatalTraceError) Error() string {
	return fmt.Sprintf("ptrace %s (pid %d): %v", e.Op, e.Pid, e.Err)
}

func (e *FatalTraceError) Unwrap() error {
	return e.Err
}

func fatal(op string, pid int, err error) *FatalTraceError {
	return &FatalTraceError{Op: op, Pid: pid, Err: err}
}
