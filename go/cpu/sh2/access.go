package sh2

import (
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

// sized accesses on behalf of the executing instruction, with memory hooks

func (c *Cpu) read8(addr uint32) uint32 {
	v := uint32(c.bus.Read8(addr))
	if c.HasMem() {
		c.OnMem(cpu.MEM_READ, addr, 1, v)
	}
	return v
}

func (c *Cpu) read16(addr uint32) uint32 {
	v := uint32(c.bus.Read16(addr))
	if c.HasMem() {
		c.OnMem(cpu.MEM_READ, addr, 2, v)
	}
	return v
}

func (c *Cpu) read32(addr uint32) uint32 {
	v := c.bus.Read32(addr)
	if c.HasMem() {
		c.OnMem(cpu.MEM_READ, addr, 4, v)
	}
	return v
}

func (c *Cpu) write8(addr, val uint32) {
	c.bus.Write8(addr, uint8(val))
	if c.HasMem() {
		c.OnMem(cpu.MEM_WRITE, addr, 1, val&0xff)
	}
}

func (c *Cpu) write16(addr, val uint32) {
	c.bus.Write16(addr, uint16(val))
	if c.HasMem() {
		c.OnMem(cpu.MEM_WRITE, addr, 2, val&0xffff)
	}
}

func (c *Cpu) write32(addr, val uint32) {
	c.bus.Write32(addr, val)
	if c.HasMem() {
		c.OnMem(cpu.MEM_WRITE, addr, 4, val)
	}
}

// sign extended loads
func (c *Cpu) read8s(addr uint32) uint32 {
	return uint32(int32(int8(c.read8(addr))))
}

func (c *Cpu) read16s(addr uint32) uint32 {
	return uint32(int32(int16(c.read16(addr))))
}

// fetch reads an instruction word. Words inside a live block come from the
// block instead of the bus.
func (c *Cpu) fetch(pc uint32) uint16 {
	if b := c.cache.Lookup(pc &^ 1); b != nil && b.Valid {
		return b.Ins[0].Op
	}
	if b := c.prev; b != nil && b.Valid && pc >= b.Start && pc <= b.End {
		return b.Ins[(pc-b.Start)/2].Op
	}
	return c.bus.Fetch(pc)
}
