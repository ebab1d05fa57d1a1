// Package forkexec starts the tracee: it forks, asks to be traced by the
// parent, stops itself so the tracer can configure ptrace options, loads an
// optional seccomp filter and finally replaces its image with the target.
//
// seccomp requires kernel >= 3.5, PTRACE_O_EXITKILL kernel >= 3.8
package forkexec
