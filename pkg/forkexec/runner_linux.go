package forkexec

import (
	"syscall"
)

// ExitLaunchFailure is the exit status of a child that failed before
// (or at) execve
const ExitLaunchFailure = 127

// Runner is the configuration including the exec path and argv.
// It creates the tracee for the ptrace-based tracer.
type Runner struct {
	// argv and env for execve syscall for the child process
	Args []string
	Env  []string

	// Path is the executable passed to execve, Args[0] if empty
	Path string

	// seccomp syscall filter applied to child right before execve
	Seccomp *syscall.SockFprog

	// ptrace controls child process to call ptrace(PTRACE_TRACEME) and
	// stop with SIGSTOP until the tracer set options
	// runtime.LockOSThread is required for tracer to call ptrace syscalls
	Ptrace bool

	// read end of the error socket, kept until ChildError is called
	errFd int
}
