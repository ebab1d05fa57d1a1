//go:build linux && (amd64 || arm64)

package ptracer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// StopKind is the kind of notification returned by wait4 for the tracee
type StopKind int

// Stop kinds
const (
	StopUnsupported StopKind = iota
	StopExited               // exited or killed by a signal
	StopSyscall              // syscall-enter-stop or syscall-exit-stop (SIGTRAP|0x80)
	StopSeccomp              // PTRACE_EVENT_SECCOMP, always a syscall entry
	StopSignal               // signal-delivery-stop or group-stop
	StopEvent                // other PTRACE_EVENT_* stop
	StopContinued            // resumed by SIGCONT
)

var stopKindString = []string{
	"unsupported",
	"exited",
	"syscall",
	"seccomp",
	"signal",
	"event",
	"continued",
}

func (k StopKind) String() string {
	if int(k) >= 0 && int(k) < len(stopKindString) {
		return stopKindString[k]
	}
	return stopKindString[0]
}

// Stop is a classified wait status. It says what happened to the tracee,
// never which syscall phase it is in.
type Stop struct {
	Kind StopKind

	// Signal is the stop signal for StopSignal and the terminating signal
	// for a killed tracee
	Signal unix.Signal

	// ExitStatus is the exit code of an exited tracee
	ExitStatus int

	// Event is the PTRACE_EVENT_* of a StopEvent
	Event int
}

func (s Stop) String() string {
	switch s.Kind {
	case StopExited:
		if s.Signal != 0 {
			return fmt.Sprintf("killed(%v)", s.Signal)
		}
		return fmt.Sprintf("exited(%d)", s.ExitStatus)
	case StopSignal:
		return fmt.Sprintf("signal(%v)", s.Signal)
	case StopEvent:
		return fmt.Sprintf("event(%d)", s.Event)
	default:
		return s.Kind.String()
	}
}

// syscallTrap is the stop signal of syscall stops once
// PTRACE_O_TRACESYSGOOD is set
const syscallTrap = unix.SIGTRAP | 0x80

// classify converts a wait status into a Stop
func classify(ws unix.WaitStatus) Stop {
	switch {
	case ws.Exited():
		return Stop{Kind: StopExited, ExitStatus: ws.ExitStatus()}

	case ws.Signaled():
		return Stop{Kind: StopExited, Signal: ws.Signal()}

	case ws.Continued():
		return Stop{Kind: StopContinued}

	case ws.Stopped():
		sig := ws.StopSignal()
		switch sig {
		case syscallTrap:
			return Stop{Kind: StopSyscall}

		case unix.SIGTRAP:
			switch cause := ws.TrapCause(); cause {
			case 0:
				// plain SIGTRAP sent to the tracee
				return Stop{Kind: StopSignal, Signal: sig}
			case unix.PTRACE_EVENT_SECCOMP:
				return Stop{Kind: StopSeccomp, Event: cause}
			default:
				return Stop{Kind: StopEvent, Event: cause}
			}

		default:
			return Stop{Kind: StopSignal, Signal: sig}
		}
	}
	return Stop{Kind: StopUnsupported}
}

// isStopSignal reports whether sig may also put the tracee in group-stop
func isStopSignal(sig unix.Signal) bool {
	switch sig {
	case unix.SIGSTOP, unix.SIGTSTP, unix.SIGTTIN, unix.SIGTTOU:
		return true
	}
	return false
}
