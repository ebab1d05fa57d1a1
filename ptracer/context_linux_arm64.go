package ptracer

// SyscallNo get current syscall no
func (c *Context) SyscallNo() int {
	return int(int64(c.regs.Regs[8])) // X8
}

// ReturnValue gets the return value of the syscall (valid on exit)
func (c *Context) ReturnValue() int64 {
	return int64(c.regs.Regs[0]) // X0
}
