// Package seccomp builds the BPF program loaded by the tracee so that the
// kernel only stops it on the syscalls the tracer reports.
package seccomp

// Action is seccomp trap action
type Action uint32

// Action defines seccomp action to the syscall
// default value 0 is invalid
const (
	ActionAllow Action = iota + 1
	ActionTrace
)

// MsgTrace is the SECCOMP_RET_DATA carried by traced syscalls and
// returned by PTRACE_GETEVENTMSG on the seccomp stop
const MsgTrace uint16 = 1

func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionTrace:
		return "trace"
	default:
		return "invalid"
	}
}
