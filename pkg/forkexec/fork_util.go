package forkexec

import (
	"os/exec"
	"syscall"
)

// prepareExec prepares execve parameters
func prepareExec(path string, args, env []string) (*byte, []*byte, []*byte, error) {
	// make exec path
	argv0, err := syscall.BytePtrFromString(path)
	if err != nil {
		return nil, nil, nil, err
	}
	// make exec args
	argv, err := syscall.SlicePtrFromStrings(args)
	if err != nil {
		return nil, nil, nil, err
	}
	// make env
	envp, err := syscall.SlicePtrFromStrings(env)
	if err != nil {
		return nil, nil, nil, err
	}
	return argv0, argv, envp, nil
}

// LookPath resolves file the way execvp does. When the lookup fails, file
// is returned unchanged so that execve reports the failure in the child.
func LookPath(file string) string {
	p, err := exec.LookPath(file)
	if err != nil {
		return file
	}
	return p
}
