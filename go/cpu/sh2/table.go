package sh2

// Desc describes one 16-bit opcode value.
type Desc struct {
	Kind Kind
	Name string
	// issue cycles, and the cost when a conditional branch is taken
	Cycles      uint8
	TakenCycles uint8

	Branch      bool // ends a block
	Delayed     bool // followed by a delay slot
	SlotIllegal bool // raises the slot-illegal exception in a delay slot
}

// Table maps every opcode to its descriptor. It is immutable once built and
// may be shared by any number of cores.
type Table [65536]Desc

func NewTable() *Table {
	t := new(Table)
	for i := range t {
		k := decode(uint16(i))
		info := &kinds[k]
		t[i] = Desc{
			Kind:        k,
			Name:        info.name,
			Cycles:      info.cycles,
			TakenCycles: info.taken,
			Branch:      info.flags&fBranch != 0,
			Delayed:     info.flags&fDelayed != 0,
			SlotIllegal: info.flags&fSlotIllegal != 0,
		}
	}
	return t
}

func (t *Table) Decode(op uint16) *Desc {
	return &t[op]
}

// decode walks the nibble tree. Groups 0 and 4 only look at the low six
// bits of the secondary code, so unused field bits alias.
func decode(op uint16) Kind {
	switch op >> 12 {
	case 0x0:
		switch op & 0x3f {
		case 0x02:
			return OP_STC_SR
		case 0x12:
			return OP_STC_GBR
		case 0x22:
			return OP_STC_VBR
		case 0x03:
			return OP_BSRF
		case 0x23:
			return OP_BRAF
		case 0x08:
			return OP_CLRT
		case 0x18:
			return OP_SETT
		case 0x28:
			return OP_CLRMAC
		case 0x09:
			return OP_NOP
		case 0x19:
			return OP_DIV0U
		case 0x29:
			return OP_MOVT
		case 0x0a:
			return OP_STS_MACH
		case 0x1a:
			return OP_STS_MACL
		case 0x2a:
			return OP_STS_PR
		case 0x0b:
			return OP_RTS
		case 0x1b:
			return OP_SLEEP
		case 0x2b:
			return OP_RTE
		}
		switch op & 0xf {
		case 0x4:
			return OP_MOVB_S0
		case 0x5:
			return OP_MOVW_S0
		case 0x6:
			return OP_MOVL_S0
		case 0x7:
			return OP_MUL_L
		case 0xc:
			return OP_MOVB_L0
		case 0xd:
			return OP_MOVW_L0
		case 0xe:
			return OP_MOVL_L0
		case 0xf:
			return OP_MAC_L
		}
	case 0x1:
		return OP_MOVL_S4
	case 0x2:
		return [16]Kind{
			OP_MOVB_S, OP_MOVW_S, OP_MOVL_S, OP_ILLEGAL,
			OP_MOVB_M, OP_MOVW_M, OP_MOVL_M, OP_DIV0S,
			OP_TST, OP_AND, OP_XOR, OP_OR,
			OP_CMP_STR, OP_XTRCT, OP_MULU_W, OP_MULS_W,
		}[op&0xf]
	case 0x3:
		return [16]Kind{
			OP_CMP_EQ, OP_ILLEGAL, OP_CMP_HS, OP_CMP_GE,
			OP_DIV1, OP_DMULU, OP_CMP_HI, OP_CMP_GT,
			OP_SUB, OP_ILLEGAL, OP_SUBC, OP_SUBV,
			OP_ADD, OP_DMULS, OP_ADDC, OP_ADDV,
		}[op&0xf]
	case 0x4:
		switch op & 0x3f {
		case 0x00:
			return OP_SHLL
		case 0x10:
			return OP_DT
		case 0x20:
			return OP_SHAL
		case 0x01:
			return OP_SHLR
		case 0x11:
			return OP_CMP_PZ
		case 0x21:
			return OP_SHAR
		case 0x02:
			return OP_STSL_MACH
		case 0x12:
			return OP_STSL_MACL
		case 0x22:
			return OP_STSL_PR
		case 0x03:
			return OP_STCL_SR
		case 0x13:
			return OP_STCL_GBR
		case 0x23:
			return OP_STCL_VBR
		case 0x04:
			return OP_ROTL
		case 0x24:
			return OP_ROTCL
		case 0x05:
			return OP_ROTR
		case 0x15:
			return OP_CMP_PL
		case 0x25:
			return OP_ROTCR
		case 0x06:
			return OP_LDSL_MACH
		case 0x16:
			return OP_LDSL_MACL
		case 0x26:
			return OP_LDSL_PR
		case 0x07:
			return OP_LDCL_SR
		case 0x17:
			return OP_LDCL_GBR
		case 0x27:
			return OP_LDCL_VBR
		case 0x08:
			return OP_SHLL2
		case 0x18:
			return OP_SHLL8
		case 0x28:
			return OP_SHLL16
		case 0x09:
			return OP_SHLR2
		case 0x19:
			return OP_SHLR8
		case 0x29:
			return OP_SHLR16
		case 0x0a:
			return OP_LDS_MACH
		case 0x1a:
			return OP_LDS_MACL
		case 0x2a:
			return OP_LDS_PR
		case 0x0b:
			return OP_JSR
		case 0x1b:
			return OP_TAS
		case 0x2b:
			return OP_JMP
		case 0x0e:
			return OP_LDC_SR
		case 0x1e:
			return OP_LDC_GBR
		case 0x2e:
			return OP_LDC_VBR
		}
		if op&0xf == 0xf {
			return OP_MAC_W
		}
	case 0x5:
		return OP_MOVL_L4
	case 0x6:
		return [16]Kind{
			OP_MOVB_L, OP_MOVW_L, OP_MOVL_L, OP_MOV,
			OP_MOVB_P, OP_MOVW_P, OP_MOVL_P, OP_NOT,
			OP_SWAP_B, OP_SWAP_W, OP_NEGC, OP_NEG,
			OP_EXTU_B, OP_EXTU_W, OP_EXTS_B, OP_EXTS_W,
		}[op&0xf]
	case 0x7:
		return OP_ADDI
	case 0x8:
		switch op >> 8 & 0xf {
		case 0x0:
			return OP_MOVB_S4
		case 0x1:
			return OP_MOVW_S4
		case 0x4:
			return OP_MOVB_L4
		case 0x5:
			return OP_MOVW_L4
		case 0x8:
			return OP_CMP_IM
		case 0x9:
			return OP_BT
		case 0xb:
			return OP_BF
		case 0xd:
			return OP_BT_S
		case 0xf:
			return OP_BF_S
		}
	case 0x9:
		return OP_MOVW_I
	case 0xa:
		return OP_BRA
	case 0xb:
		return OP_BSR
	case 0xc:
		return [16]Kind{
			OP_MOVB_SG, OP_MOVW_SG, OP_MOVL_SG, OP_TRAPA,
			OP_MOVB_LG, OP_MOVW_LG, OP_MOVL_LG, OP_MOVA,
			OP_TSTI, OP_ANDI, OP_XORI, OP_ORI,
			OP_TSTM, OP_ANDM, OP_XORM, OP_ORM,
		}[op>>8&0xf]
	case 0xd:
		return OP_MOVL_I
	case 0xe:
		return OP_MOVI
	}
	return OP_ILLEGAL
}
