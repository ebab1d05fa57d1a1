package ptracer

// SyscallNo get current syscall no
func (c *Context) SyscallNo() int {
	return int(int64(c.regs.Orig_rax))
}

// ReturnValue gets the return value of the syscall (valid on exit)
func (c *Context) ReturnValue() int64 {
	return int64(c.regs.Rax)
}
