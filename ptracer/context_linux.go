//go:build linux && (amd64 || arm64)

package ptracer

import (
	"golang.org/x/sys/unix"
)

// Context is the register snapshot at the current syscall stop
// used to retrieve syscall number and return value
type Context struct {
	// Pid is current context process pid
	Pid int
	// current reg context (platform dependent)
	regs unix.PtraceRegs
}

func getTrapContext(pid int) (*Context, error) {
	var regs unix.PtraceRegs
	err := ptraceGetRegSet(pid, &regs)
	if err != nil {
		return nil, err
	}
	return &Context{
		Pid:  pid,
		regs: regs,
	}, nil
}
