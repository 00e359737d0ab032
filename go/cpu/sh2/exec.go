package sh2

// operand fields
func fn(op uint16) int { return int(op >> 8 & 0xf) }
func fm(op uint16) int { return int(op >> 4 & 0xf) }

func simm8(op uint16) uint32 { return uint32(int32(int8(op))) }

// branch targets
func disp8(pc uint32, op uint16) uint32 {
	return pc + 4 + uint32(int32(int8(op))*2)
}

func disp12(pc uint32, op uint16) uint32 {
	return pc + 4 + uint32(int32(int16(op<<4))>>4*2)
}

// pcbase is the PC value seen by PC-relative operands: the address plus 4,
// or the branch target plus 2 inside a delay slot.
func (c *Cpu) pcbase(pc uint32) uint32 {
	if c.InDelay {
		return c.DelayPC + 2
	}
	return pc + 4
}

func (c *Cpu) delay(target uint32) {
	c.InDelay = true
	c.DelayPC = target
}

// execSlot runs the instruction in the delay slot of the branch at branch.
func (c *Cpu) execSlot(in *Inst, branch uint32) int {
	if in.D.SlotIllegal {
		c.InDelay = false
		c.stats.Exceptions++
		c.raise(VEC_SLOT, branch)
		return excCycles
	}
	return c.exec(in)
}

// exec runs one instruction and returns its cycle cost. PC is only written
// by branches and exceptions; the caller has already pointed it past the
// block.
func (c *Cpu) exec(in *Inst) int {
	op := in.Op
	n, m := fn(op), fm(op)
	R := &c.R
	cycles := int(in.D.Cycles)

	switch in.D.Kind {
	case OP_ILLEGAL:
		c.stats.Exceptions++
		c.raise(VEC_ILLEGAL, in.PC)

	// moves
	case OP_MOV:
		R[n] = R[m]
	case OP_MOVI:
		R[n] = simm8(op)
	case OP_MOVW_I:
		R[n] = c.read16s(c.pcbase(in.PC) + uint32(op&0xff)*2)
	case OP_MOVL_I:
		R[n] = c.read32(c.pcbase(in.PC)&^3 + uint32(op&0xff)*4)
	case OP_MOVA:
		R[0] = c.pcbase(in.PC)&^3 + uint32(op&0xff)*4
	case OP_MOVT:
		R[n] = c.tbit()

	case OP_MOVB_S:
		c.write8(R[n], R[m])
	case OP_MOVW_S:
		c.write16(R[n], R[m])
	case OP_MOVL_S:
		c.write32(R[n], R[m])
	case OP_MOVB_L:
		R[n] = c.read8s(R[m])
	case OP_MOVW_L:
		R[n] = c.read16s(R[m])
	case OP_MOVL_L:
		R[n] = c.read32(R[m])
	case OP_MOVB_M:
		v := R[m]
		R[n] -= 1
		c.write8(R[n], v)
	case OP_MOVW_M:
		v := R[m]
		R[n] -= 2
		c.write16(R[n], v)
	case OP_MOVL_M:
		v := R[m]
		R[n] -= 4
		c.write32(R[n], v)
	case OP_MOVB_P:
		v := c.read8s(R[m])
		R[m] += 1
		R[n] = v
	case OP_MOVW_P:
		v := c.read16s(R[m])
		R[m] += 2
		R[n] = v
	case OP_MOVL_P:
		v := c.read32(R[m])
		R[m] += 4
		R[n] = v
	case OP_MOVB_S0:
		c.write8(R[0]+R[n], R[m])
	case OP_MOVW_S0:
		c.write16(R[0]+R[n], R[m])
	case OP_MOVL_S0:
		c.write32(R[0]+R[n], R[m])
	case OP_MOVB_L0:
		R[n] = c.read8s(R[0] + R[m])
	case OP_MOVW_L0:
		R[n] = c.read16s(R[0] + R[m])
	case OP_MOVL_L0:
		R[n] = c.read32(R[0] + R[m])
	case OP_MOVL_S4:
		c.write32(R[n]+uint32(op&0xf)*4, R[m])
	case OP_MOVL_L4:
		R[n] = c.read32(R[m] + uint32(op&0xf)*4)
	case OP_MOVB_S4:
		c.write8(R[m]+uint32(op&0xf), R[0])
	case OP_MOVW_S4:
		c.write16(R[m]+uint32(op&0xf)*2, R[0])
	case OP_MOVB_L4:
		R[0] = c.read8s(R[m] + uint32(op&0xf))
	case OP_MOVW_L4:
		R[0] = c.read16s(R[m] + uint32(op&0xf)*2)
	case OP_MOVB_SG:
		c.write8(c.GBR+uint32(op&0xff), R[0])
	case OP_MOVW_SG:
		c.write16(c.GBR+uint32(op&0xff)*2, R[0])
	case OP_MOVL_SG:
		c.write32(c.GBR+uint32(op&0xff)*4, R[0])
	case OP_MOVB_LG:
		R[0] = c.read8s(c.GBR + uint32(op&0xff))
	case OP_MOVW_LG:
		R[0] = c.read16s(c.GBR + uint32(op&0xff)*2)
	case OP_MOVL_LG:
		R[0] = c.read32(c.GBR + uint32(op&0xff)*4)

	// control registers
	case OP_STC_SR:
		R[n] = c.SR
	case OP_STC_GBR:
		R[n] = c.GBR
	case OP_STC_VBR:
		R[n] = c.VBR
	case OP_STS_MACH:
		R[n] = c.MACH
	case OP_STS_MACL:
		R[n] = c.MACL
	case OP_STS_PR:
		R[n] = c.PR
	case OP_LDC_SR:
		c.SR = R[n] & SR_MASK
	case OP_LDC_GBR:
		c.GBR = R[n]
	case OP_LDC_VBR:
		c.VBR = R[n]
	case OP_LDS_MACH:
		c.MACH = R[n]
	case OP_LDS_MACL:
		c.MACL = R[n]
	case OP_LDS_PR:
		c.PR = R[n]
	case OP_STCL_SR:
		R[n] -= 4
		c.write32(R[n], c.SR)
	case OP_STCL_GBR:
		R[n] -= 4
		c.write32(R[n], c.GBR)
	case OP_STCL_VBR:
		R[n] -= 4
		c.write32(R[n], c.VBR)
	case OP_STSL_MACH:
		R[n] -= 4
		c.write32(R[n], c.MACH)
	case OP_STSL_MACL:
		R[n] -= 4
		c.write32(R[n], c.MACL)
	case OP_STSL_PR:
		R[n] -= 4
		c.write32(R[n], c.PR)
	case OP_LDCL_SR:
		c.SR = c.read32(R[n]) & SR_MASK
		R[n] += 4
	case OP_LDCL_GBR:
		c.GBR = c.read32(R[n])
		R[n] += 4
	case OP_LDCL_VBR:
		c.VBR = c.read32(R[n])
		R[n] += 4
	case OP_LDSL_MACH:
		c.MACH = c.read32(R[n])
		R[n] += 4
	case OP_LDSL_MACL:
		c.MACL = c.read32(R[n])
		R[n] += 4
	case OP_LDSL_PR:
		c.PR = c.read32(R[n])
		R[n] += 4

	// flags
	case OP_CLRT:
		c.SetT(false)
	case OP_SETT:
		c.SetT(true)
	case OP_CLRMAC:
		c.MACH, c.MACL = 0, 0
	case OP_NOP:

	// arithmetic
	case OP_ADD:
		R[n] += R[m]
	case OP_ADDI:
		R[n] += simm8(op)
	case OP_ADDC:
		R[n] = c.addc(R[n], R[m])
	case OP_ADDV:
		R[n] = c.addv(R[n], R[m])
	case OP_SUB:
		R[n] -= R[m]
	case OP_SUBC:
		R[n] = c.subc(R[n], R[m])
	case OP_SUBV:
		R[n] = c.subv(R[n], R[m])
	case OP_NEG:
		R[n] = -R[m]
	case OP_NEGC:
		R[n] = c.subc(0, R[m])
	case OP_DT:
		R[n]--
		c.SetT(R[n] == 0)
	case OP_EXTS_B:
		R[n] = uint32(int32(int8(R[m])))
	case OP_EXTS_W:
		R[n] = uint32(int32(int16(R[m])))
	case OP_EXTU_B:
		R[n] = R[m] & 0xff
	case OP_EXTU_W:
		R[n] = R[m] & 0xffff
	case OP_MUL_L:
		c.MACL = R[n] * R[m]
	case OP_MULS_W:
		c.MACL = uint32(int32(int16(R[n])) * int32(int16(R[m])))
	case OP_MULU_W:
		c.MACL = (R[n] & 0xffff) * (R[m] & 0xffff)
	case OP_DMULS:
		v := uint64(int64(int32(R[n])) * int64(int32(R[m])))
		c.MACH, c.MACL = uint32(v>>32), uint32(v)
	case OP_DMULU:
		v := uint64(R[n]) * uint64(R[m])
		c.MACH, c.MACL = uint32(v>>32), uint32(v)
	case OP_MAC_W:
		c.macw(n, m)
	case OP_MAC_L:
		c.macl(n, m)
	case OP_DIV0U:
		c.SR &^= SR_M | SR_Q | SR_T
	case OP_DIV0S:
		q, mm := R[n]>>31 != 0, R[m]>>31 != 0
		c.SetQ(q)
		c.SetM(mm)
		c.SetT(q != mm)
	case OP_DIV1:
		c.div1(n, m)

	// compares
	case OP_CMP_EQ:
		c.SetT(R[n] == R[m])
	case OP_CMP_HS:
		c.SetT(R[n] >= R[m])
	case OP_CMP_GE:
		c.SetT(int32(R[n]) >= int32(R[m]))
	case OP_CMP_HI:
		c.SetT(R[n] > R[m])
	case OP_CMP_GT:
		c.SetT(int32(R[n]) > int32(R[m]))
	case OP_CMP_PZ:
		c.SetT(int32(R[n]) >= 0)
	case OP_CMP_PL:
		c.SetT(int32(R[n]) > 0)
	case OP_CMP_IM:
		c.SetT(R[0] == simm8(op))
	case OP_CMP_STR:
		c.SetT(cmpstr(R[n], R[m]))
	case OP_TST:
		c.SetT(R[n]&R[m] == 0)
	case OP_TSTI:
		c.SetT(R[0]&uint32(op&0xff) == 0)

	// logic
	case OP_AND:
		R[n] &= R[m]
	case OP_OR:
		R[n] |= R[m]
	case OP_XOR:
		R[n] ^= R[m]
	case OP_NOT:
		R[n] = ^R[m]
	case OP_ANDI:
		R[0] &= uint32(op & 0xff)
	case OP_ORI:
		R[0] |= uint32(op & 0xff)
	case OP_XORI:
		R[0] ^= uint32(op & 0xff)
	case OP_TSTM:
		c.SetT(c.read8(c.GBR+R[0])&uint32(op&0xff) == 0)
	case OP_ANDM:
		a := c.GBR + R[0]
		c.write8(a, c.read8(a)&uint32(op&0xff))
	case OP_ORM:
		a := c.GBR + R[0]
		c.write8(a, c.read8(a)|uint32(op&0xff))
	case OP_XORM:
		a := c.GBR + R[0]
		c.write8(a, c.read8(a)^uint32(op&0xff))
	case OP_TAS:
		c.tas(R[n])
	case OP_SWAP_B:
		R[n] = R[m]&0xffff0000 | R[m]&0xff<<8 | R[m]>>8&0xff
	case OP_SWAP_W:
		R[n] = R[m]<<16 | R[m]>>16
	case OP_XTRCT:
		R[n] = R[m]<<16 | R[n]>>16

	// shifts
	case OP_SHLL, OP_SHAL:
		c.SetT(R[n]>>31 != 0)
		R[n] <<= 1
	case OP_SHLR:
		c.SetT(R[n]&1 != 0)
		R[n] >>= 1
	case OP_SHAR:
		c.SetT(R[n]&1 != 0)
		R[n] = uint32(int32(R[n]) >> 1)
	case OP_ROTL:
		t := R[n] >> 31
		R[n] = R[n]<<1 | t
		c.SetT(t != 0)
	case OP_ROTR:
		t := R[n] & 1
		R[n] = R[n]>>1 | t<<31
		c.SetT(t != 0)
	case OP_ROTCL:
		t := R[n] >> 31
		R[n] = R[n]<<1 | c.tbit()
		c.SetT(t != 0)
	case OP_ROTCR:
		t := R[n] & 1
		R[n] = R[n]>>1 | c.tbit()<<31
		c.SetT(t != 0)
	case OP_SHLL2:
		R[n] <<= 2
	case OP_SHLL8:
		R[n] <<= 8
	case OP_SHLL16:
		R[n] <<= 16
	case OP_SHLR2:
		R[n] >>= 2
	case OP_SHLR8:
		R[n] >>= 8
	case OP_SHLR16:
		R[n] >>= 16

	// branches
	case OP_BT:
		if c.T() {
			c.PC = disp8(in.PC, op)
			cycles = int(in.D.TakenCycles)
		}
	case OP_BF:
		if !c.T() {
			c.PC = disp8(in.PC, op)
			cycles = int(in.D.TakenCycles)
		}
	case OP_BT_S:
		if c.T() {
			c.delay(disp8(in.PC, op))
			cycles = int(in.D.TakenCycles)
		} else {
			c.delay(in.PC + 4)
		}
	case OP_BF_S:
		if !c.T() {
			c.delay(disp8(in.PC, op))
			cycles = int(in.D.TakenCycles)
		} else {
			c.delay(in.PC + 4)
		}
	case OP_BRA:
		c.delay(disp12(in.PC, op))
	case OP_BSR:
		c.PR = in.PC + 4
		c.delay(disp12(in.PC, op))
	case OP_BRAF:
		c.delay(in.PC + 4 + R[n])
	case OP_BSRF:
		c.PR = in.PC + 4
		c.delay(in.PC + 4 + R[n])
	case OP_JMP:
		c.delay(R[n])
	case OP_JSR:
		c.PR = in.PC + 4
		c.delay(R[n])
	case OP_RTS:
		c.delay(c.PR)
	case OP_RTE:
		pc := c.read32(R[15])
		R[15] += 4
		c.SR = c.read32(R[15]) & SR_MASK
		R[15] += 4
		c.delay(pc)
	case OP_TRAPA:
		c.raise(int(op&0xff), in.PC+2)
	case OP_SLEEP:
		c.Sleeping = true
		c.PC = in.PC + 2
	}
	return cycles
}
