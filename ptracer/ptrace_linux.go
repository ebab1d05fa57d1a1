//go:build linux && (amd64 || arm64)

package ptracer

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ptrace constants
const (
	NT_PRSTATUS = 1

	// sizeof(siginfo_t)
	siginfoSize = 128
)

// Registers is the register snapshot of a stopped tracee
type Registers interface {
	// SyscallNo returns the syscall number register
	SyscallNo() int
	// ReturnValue returns the syscall return register
	ReturnValue() int64
}

// ptraceOps are the kernel requests issued by the tracer loop
type ptraceOps interface {
	Wait(pid int) (unix.WaitStatus, unix.Rusage, error)
	SetOptions(pid, options int) error
	Syscall(pid, sig int) error
	Cont(pid, sig int) error
	Registers(pid int) (Registers, error)
	GroupStop(pid int) (bool, error)
	EventMsg(pid int) (uint, error)
	PidfdOpen(pid int) (int, error)
	// Kill sends SIGKILL through pidfd, or to pid when pidfd is negative
	Kill(pid, pidfd int) error
	Close(fd int) error
}

type linuxOps struct{}

func (linuxOps) Wait(pid int) (unix.WaitStatus, unix.Rusage, error) {
	var (
		wstatus unix.WaitStatus
		rusage  unix.Rusage
	)
	for {
		_, err := unix.Wait4(pid, &wstatus, unix.WALL, &rusage)
		if err != unix.EINTR {
			return wstatus, rusage, err
		}
	}
}

func (linuxOps) SetOptions(pid, options int) error {
	return unix.PtraceSetOptions(pid, options)
}

func (linuxOps) Syscall(pid, sig int) error {
	return unix.PtraceSyscall(pid, sig)
}

func (linuxOps) Cont(pid, sig int) error {
	return unix.PtraceCont(pid, sig)
}

func (linuxOps) Registers(pid int) (Registers, error) {
	return getTrapContext(pid)
}

// GroupStop tells a group-stop from a signal-delivery-stop, the kernel
// has no siginfo for the former
func (linuxOps) GroupStop(pid int) (bool, error) {
	var si [siginfoSize]byte
	err := ptrace(unix.PTRACE_GETSIGINFO, pid, 0, uintptr(unsafe.Pointer(&si[0])))
	if err == unix.EINVAL {
		return true, nil
	}
	return false, err
}

func (linuxOps) EventMsg(pid int) (uint, error) {
	return unix.PtraceGetEventMsg(pid)
}

func (linuxOps) PidfdOpen(pid int) (int, error) {
	return unix.PidfdOpen(pid, 0)
}

func (linuxOps) Kill(pid, pidfd int) error {
	if pidfd >= 0 {
		return unix.PidfdSendSignal(pidfd, unix.SIGKILL, nil, 0)
	}
	return unix.Kill(pid, unix.SIGKILL)
}

func (linuxOps) Close(fd int) error {
	return unix.Close(fd)
}

func ptrace(request int, pid int, addr uintptr, data uintptr) (err error) {
	_, _, e1 := syscall.Syscall6(syscall.SYS_PTRACE, uintptr(request), uintptr(pid), uintptr(addr), uintptr(data), 0, 0)
	if e1 != 0 {
		err = e1
	}
	return
}

func ptraceGetRegSet(pid int, regs *unix.PtraceRegs) error {
	iov := getIovec((*byte)(unsafe.Pointer(regs)), int(unsafe.Sizeof(*regs)))
	return ptrace(unix.PTRACE_GETREGSET, pid, NT_PRSTATUS, uintptr(unsafe.Pointer(&iov)))
}

func getIovec(base *byte, l int) unix.Iovec {
	iov := unix.Iovec{Base: base}
	iov.SetLen(l)
	return iov
}
