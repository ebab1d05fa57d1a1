package forkexec

// defines missing consts from syscall package
const SECCOMP_SET_MODE_FILTER = 1
