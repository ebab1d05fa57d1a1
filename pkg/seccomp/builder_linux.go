package seccomp

import (
	"errors"
	"fmt"
	"syscall"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
)

// ErrInvalidAction is returned when the builder's default action is unset
var ErrInvalidAction = errors.New("seccomp: invalid default action")

// Builder is used to build the filter
type Builder struct {
	Allow, Trace []string
	Default      Action
}

// Build assembles the policy into a loadable filter
func (b *Builder) Build() (Filter, error) {
	def, err := toSeccompAction(b.Default)
	if err != nil {
		return nil, err
	}
	policy := libseccomp.Policy{
		DefaultAction: def,
	}
	if len(b.Allow) > 0 {
		policy.Syscalls = append(policy.Syscalls, libseccomp.SyscallGroup{
			Action: libseccomp.ActionAllow,
			Names:  b.Allow,
		})
	}
	if len(b.Trace) > 0 {
		policy.Syscalls = append(policy.Syscalls, libseccomp.SyscallGroup{
			Action: actTrace,
			Names:  b.Trace,
		})
	}
	// policy needs at least one group, execve already gets the default action
	if len(policy.Syscalls) == 0 {
		policy.Syscalls = append(policy.Syscalls, libseccomp.SyscallGroup{
			Action: withMsg(def),
			Names:  []string{"execve"},
		})
	}

	insts, err := policy.Assemble()
	if err != nil {
		return nil, fmt.Errorf("seccomp: assemble policy: %w", err)
	}
	// the default action is the last instruction
	if ret, ok := insts[len(insts)-1].(bpf.RetConstant); ok {
		ret.Val = uint32(withMsg(libseccomp.Action(ret.Val)))
		insts[len(insts)-1] = ret
	}
	return ExportBPF(insts)
}

// actTrace carries MsgTrace in SECCOMP_RET_DATA
var actTrace = withMsg(libseccomp.ActionTrace)

// withMsg adds MsgTrace to the trace action, the policy only accepts the
// bare action as default
func withMsg(a libseccomp.Action) libseccomp.Action {
	if a == libseccomp.ActionTrace {
		return a | libseccomp.Action(MsgTrace)
	}
	return a
}

func toSeccompAction(a Action) (libseccomp.Action, error) {
	switch a {
	case ActionAllow:
		return libseccomp.ActionAllow, nil
	case ActionTrace:
		return libseccomp.ActionTrace, nil
	default:
		return 0, ErrInvalidAction
	}
}

// ExportBPF converts assembled instructions to kernel readable BPF content
func ExportBPF(insts []bpf.Instruction) (Filter, error) {
	raw, err := bpf.Assemble(insts)
	if err != nil {
		return nil, fmt.Errorf("seccomp: export bpf: %w", err)
	}
	f := make(Filter, 0, len(raw))
	for _, r := range raw {
		f = append(f, syscall.SockFilter{
			Code: r.Op,
			Jt:   r.Jt,
			Jf:   r.Jf,
			K:    r.K,
		})
	}
	return f, nil
}
