package sh2

// raise enters an exception or interrupt handler: SR then the return PC go
// on the stack and PC is loaded from the vector table.
func (c *Cpu) raise(vector int, ret uint32) {
	c.R[SP] -= 4
	c.write32(c.R[SP], c.SR)
	c.R[SP] -= 4
	c.write32(c.R[SP], ret)
	c.PC = c.read32(c.VBR + uint32(vector)*4)
	c.InDelay = false
	if !c.Hooks.Empty() {
		c.OnIntr(uint32(vector))
	}
}
