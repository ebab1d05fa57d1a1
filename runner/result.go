package runner

import (
	"fmt"
	"time"
)

// Exit codes of the tracer process that are not mirrored from the tracee
const (
	ExitTracerError  = 1
	ExitInvalidUsage = 2
	ExitLaunchError  = 127
	exitSignalBase   = 128
)

// Result is the traced program result
type Result struct {
	Status            // result status
	ExitStatus int    // exit status (signal number if signalled)
	Error      string // potential detailed error message (launch / tracer error)

	Time   time.Duration // used user CPU time  (underlying type int64 in ns)
	Memory Size          // used user memory    (underlying type uint64 in bytes)

	// Stops is the number of syscall stops observed, Reported is the
	// number of events that passed the filter
	Stops, Reported uint64

	// metrics for the tracer
	SetUpTime   time.Duration
	RunningTime time.Duration
}

// ExitCode returns the exit code the tracer process should exit with:
// the tracee's own status when it exited, 128+signal when it was killed
// and a fixed code otherwise
func (r Result) ExitCode() int {
	switch r.Status {
	case StatusNormal, StatusNonzeroExitStatus:
		return r.ExitStatus
	case StatusSignalled:
		return exitSignalBase + r.ExitStatus
	case StatusLaunchError:
		if r.ExitStatus != 0 {
			return r.ExitStatus
		}
		return ExitLaunchError
	default:
		return ExitTracerError
	}
}

func (r Result) String() string {
	switch r.Status {
	case StatusNormal:
		return fmt.Sprintf("Result[%v %v][%d/%d][%v %v]", r.Time, r.Memory, r.Reported, r.Stops, r.SetUpTime, r.RunningTime)

	case StatusSignalled:
		return fmt.Sprintf("Result[Signalled(%d)][%v %v][%d/%d][%v %v]", r.ExitStatus, r.Time, r.Memory, r.Reported, r.Stops, r.SetUpTime, r.RunningTime)

	case StatusLaunchError, StatusTracerError:
		return fmt.Sprintf("Result[%v(%s)][%d/%d][%v %v]", r.Status, r.Error, r.Reported, r.Stops, r.SetUpTime, r.RunningTime)

	default:
		return fmt.Sprintf("Result[%v(%s %d)][%v %v][%d/%d][%v %v]", r.Status, r.Error, r.ExitStatus, r.Time, r.Memory, r.Reported, r.Stops, r.SetUpTime, r.RunningTime)
	}
}
