package sh2

import (
	"github.com/lunixbochs/sh2corn/go/models"
)

// step is one pre-decoded instruction of a compiled block. Steps with a
// variable cost add the difference from the static cost to Cpu.extra.
type step func(c *Cpu)

// promote compiles a block the first time its hit count passes the
// threshold, and runs the poll detector on it once.
func (c *Cpu) promote(b *Block) {
	t := c.config.PromoteThreshold
	if t == 0 {
		// tier 2 is off, but polls are still found at the default point
		if b.Poll == nil && b.Hits > models.DefaultPromoteThreshold {
			c.detect(b)
		}
		return
	}
	if b.compiled != nil || b.Hits <= t {
		return
	}
	b.compiled = c.compile(b)
	c.stats.Promoted++
	c.cache.promoted()
	if b.Poll == nil {
		c.detect(b)
	}
}

func (c *Cpu) compile(b *Block) func(*Cpu) int {
	steps := make([]step, 0, len(b.Ins))
	delayed := false
	for i := 0; i < len(b.Ins); i++ {
		in := &b.Ins[i]
		steps = append(steps, c.compileOne(in, false))
		if in.D.Delayed && i+1 < len(b.Ins) {
			i++
			steps = append(steps, c.compileSlot(&b.Ins[i], in.PC))
			delayed = true
		}
	}
	fall := b.End + 2
	static := b.cycles
	if delayed {
		return func(c *Cpu) int {
			c.PC = fall
			c.extra = 0
			for _, s := range steps {
				s(c)
			}
			c.endDelay()
			return static + c.extra
		}
	}
	return func(c *Cpu) int {
		c.PC = fall
		c.extra = 0
		for _, s := range steps {
			s(c)
		}
		return static + c.extra
	}
}

// fallback runs a single instruction through the interpreter.
func fallback(in *Inst) step {
	base := int(in.D.Cycles)
	return func(c *Cpu) {
		c.extra += c.exec(in) - base
	}
}

func (c *Cpu) compileSlot(in *Inst, branch uint32) step {
	if in.D.SlotIllegal {
		base := int(in.D.Cycles)
		return func(c *Cpu) {
			c.extra += c.execSlot(in, branch) - base
		}
	}
	return c.compileOne(in, true)
}

// compileOne specialises the common kinds with their operands bound. PC
// relative loads in a delay slot depend on the branch outcome and go
// through the interpreter.
func (c *Cpu) compileOne(in *Inst, slot bool) step {
	op := in.Op
	n, m := fn(op), fm(op)
	pc := in.PC

	switch in.D.Kind {
	case OP_NOP:
		return func(c *Cpu) {}
	case OP_MOV:
		return func(c *Cpu) { c.R[n] = c.R[m] }
	case OP_MOVI:
		imm := simm8(op)
		return func(c *Cpu) { c.R[n] = imm }
	case OP_MOVW_I:
		if slot {
			break
		}
		addr := pc + 4 + uint32(op&0xff)*2
		return func(c *Cpu) { c.R[n] = c.read16s(addr) }
	case OP_MOVL_I:
		if slot {
			break
		}
		addr := (pc+4)&^3 + uint32(op&0xff)*4
		return func(c *Cpu) { c.R[n] = c.read32(addr) }
	case OP_MOVA:
		if slot {
			break
		}
		v := (pc+4)&^3 + uint32(op&0xff)*4
		return func(c *Cpu) { c.R[0] = v }
	case OP_MOVT:
		return func(c *Cpu) { c.R[n] = c.tbit() }

	case OP_MOVB_L:
		return func(c *Cpu) { c.R[n] = c.read8s(c.R[m]) }
	case OP_MOVW_L:
		return func(c *Cpu) { c.R[n] = c.read16s(c.R[m]) }
	case OP_MOVL_L:
		return func(c *Cpu) { c.R[n] = c.read32(c.R[m]) }
	case OP_MOVB_S:
		return func(c *Cpu) { c.write8(c.R[n], c.R[m]) }
	case OP_MOVW_S:
		return func(c *Cpu) { c.write16(c.R[n], c.R[m]) }
	case OP_MOVL_S:
		return func(c *Cpu) { c.write32(c.R[n], c.R[m]) }
	case OP_MOVL_P:
		return func(c *Cpu) {
			v := c.read32(c.R[m])
			c.R[m] += 4
			c.R[n] = v
		}
	case OP_MOVL_M:
		return func(c *Cpu) {
			v := c.R[m]
			c.R[n] -= 4
			c.write32(c.R[n], v)
		}
	case OP_MOVL_L4:
		disp := uint32(op&0xf) * 4
		return func(c *Cpu) { c.R[n] = c.read32(c.R[m] + disp) }
	case OP_MOVL_S4:
		disp := uint32(op&0xf) * 4
		return func(c *Cpu) { c.write32(c.R[n]+disp, c.R[m]) }
	case OP_MOVB_L4:
		disp := uint32(op & 0xf)
		return func(c *Cpu) { c.R[0] = c.read8s(c.R[m] + disp) }
	case OP_MOVW_L4:
		disp := uint32(op&0xf) * 2
		return func(c *Cpu) { c.R[0] = c.read16s(c.R[m] + disp) }
	case OP_MOVL_L0:
		return func(c *Cpu) { c.R[n] = c.read32(c.R[0] + c.R[m]) }
	case OP_MOVB_LG:
		disp := uint32(op & 0xff)
		return func(c *Cpu) { c.R[0] = c.read8s(c.GBR + disp) }
	case OP_MOVW_LG:
		disp := uint32(op&0xff) * 2
		return func(c *Cpu) { c.R[0] = c.read16s(c.GBR + disp) }
	case OP_MOVL_LG:
		disp := uint32(op&0xff) * 4
		return func(c *Cpu) { c.R[0] = c.read32(c.GBR + disp) }

	case OP_ADD:
		return func(c *Cpu) { c.R[n] += c.R[m] }
	case OP_ADDI:
		imm := simm8(op)
		return func(c *Cpu) { c.R[n] += imm }
	case OP_SUB:
		return func(c *Cpu) { c.R[n] -= c.R[m] }
	case OP_NEG:
		return func(c *Cpu) { c.R[n] = -c.R[m] }
	case OP_DT:
		return func(c *Cpu) {
			c.R[n]--
			c.SetT(c.R[n] == 0)
		}
	case OP_EXTU_B:
		return func(c *Cpu) { c.R[n] = c.R[m] & 0xff }
	case OP_EXTU_W:
		return func(c *Cpu) { c.R[n] = c.R[m] & 0xffff }
	case OP_EXTS_B:
		return func(c *Cpu) { c.R[n] = uint32(int32(int8(c.R[m]))) }
	case OP_EXTS_W:
		return func(c *Cpu) { c.R[n] = uint32(int32(int16(c.R[m]))) }
	case OP_SWAP_B:
		return func(c *Cpu) { c.R[n] = c.R[m]&0xffff0000 | c.R[m]&0xff<<8 | c.R[m]>>8&0xff }
	case OP_SWAP_W:
		return func(c *Cpu) { c.R[n] = c.R[m]<<16 | c.R[m]>>16 }

	case OP_CMP_EQ:
		return func(c *Cpu) { c.SetT(c.R[n] == c.R[m]) }
	case OP_CMP_HS:
		return func(c *Cpu) { c.SetT(c.R[n] >= c.R[m]) }
	case OP_CMP_GE:
		return func(c *Cpu) { c.SetT(int32(c.R[n]) >= int32(c.R[m])) }
	case OP_CMP_HI:
		return func(c *Cpu) { c.SetT(c.R[n] > c.R[m]) }
	case OP_CMP_GT:
		return func(c *Cpu) { c.SetT(int32(c.R[n]) > int32(c.R[m])) }
	case OP_CMP_PZ:
		return func(c *Cpu) { c.SetT(int32(c.R[n]) >= 0) }
	case OP_CMP_PL:
		return func(c *Cpu) { c.SetT(int32(c.R[n]) > 0) }
	case OP_CMP_IM:
		imm := simm8(op)
		return func(c *Cpu) { c.SetT(c.R[0] == imm) }
	case OP_TST:
		return func(c *Cpu) { c.SetT(c.R[n]&c.R[m] == 0) }
	case OP_TSTI:
		imm := uint32(op & 0xff)
		return func(c *Cpu) { c.SetT(c.R[0]&imm == 0) }
	case OP_CLRT:
		return func(c *Cpu) { c.SR &^= SR_T }
	case OP_SETT:
		return func(c *Cpu) { c.SR |= SR_T }

	case OP_AND:
		return func(c *Cpu) { c.R[n] &= c.R[m] }
	case OP_OR:
		return func(c *Cpu) { c.R[n] |= c.R[m] }
	case OP_XOR:
		return func(c *Cpu) { c.R[n] ^= c.R[m] }
	case OP_NOT:
		return func(c *Cpu) { c.R[n] = ^c.R[m] }
	case OP_ANDI:
		imm := uint32(op & 0xff)
		return func(c *Cpu) { c.R[0] &= imm }
	case OP_ORI:
		imm := uint32(op & 0xff)
		return func(c *Cpu) { c.R[0] |= imm }
	case OP_XORI:
		imm := uint32(op & 0xff)
		return func(c *Cpu) { c.R[0] ^= imm }

	case OP_SHLL, OP_SHAL:
		return func(c *Cpu) {
			c.SetT(c.R[n]>>31 != 0)
			c.R[n] <<= 1
		}
	case OP_SHLR:
		return func(c *Cpu) {
			c.SetT(c.R[n]&1 != 0)
			c.R[n] >>= 1
		}
	case OP_SHAR:
		return func(c *Cpu) {
			c.SetT(c.R[n]&1 != 0)
			c.R[n] = uint32(int32(c.R[n]) >> 1)
		}
	case OP_SHLL2:
		return func(c *Cpu) { c.R[n] <<= 2 }
	case OP_SHLL8:
		return func(c *Cpu) { c.R[n] <<= 8 }
	case OP_SHLL16:
		return func(c *Cpu) { c.R[n] <<= 16 }
	case OP_SHLR2:
		return func(c *Cpu) { c.R[n] >>= 2 }
	case OP_SHLR8:
		return func(c *Cpu) { c.R[n] >>= 8 }
	case OP_SHLR16:
		return func(c *Cpu) { c.R[n] >>= 16 }

	case OP_BT, OP_BF:
		target := disp8(pc, op)
		want := in.D.Kind == OP_BT
		taken := int(in.D.TakenCycles) - int(in.D.Cycles)
		return func(c *Cpu) {
			if c.T() == want {
				c.PC = target
				c.extra += taken
			}
		}
	case OP_BT_S, OP_BF_S:
		target := disp8(pc, op)
		want := in.D.Kind == OP_BT_S
		taken := int(in.D.TakenCycles) - int(in.D.Cycles)
		return func(c *Cpu) {
			if c.T() == want {
				c.delay(target)
				c.extra += taken
			} else {
				c.delay(pc + 4)
			}
		}
	case OP_BRA:
		target := disp12(pc, op)
		return func(c *Cpu) { c.delay(target) }
	case OP_BSR:
		target := disp12(pc, op)
		return func(c *Cpu) {
			c.PR = pc + 4
			c.delay(target)
		}
	case OP_JMP:
		return func(c *Cpu) { c.delay(c.R[n]) }
	case OP_JSR:
		return func(c *Cpu) {
			c.PR = pc + 4
			c.delay(c.R[n])
		}
	case OP_RTS:
		return func(c *Cpu) { c.delay(c.PR) }
	}
	return fallback(in)
}
