package sh2

import (
	"fmt"
)

type PollKind int

const (
	PollNone PollKind = iota
	PollBusyLoop
	PollRegion
)

func (k PollKind) String() string {
	switch k {
	case PollBusyLoop:
		return "busy"
	case PollRegion:
		return "poll"
	}
	return "none"
}

// PollRecord is the detector's verdict on a hot block. Every promoted block
// gets one. The shape is never recomputed, but a region poll's address is
// replaced with a new record when the block runs with different registers.
type PollRecord struct {
	Kind   PollKind
	Region RegionKind
	// a write to Region can end the poll, so the scheduler may park the core
	Supported bool

	// polled location, for PollRegion
	Addr uint32
	Size int

	// instruction indexes, -1 when absent
	Load   int
	Cmp    int
	Branch int
}

// Parks reports whether the scheduler bridge acts on this record.
func (r *PollRecord) Parks() bool {
	return r != nil && (r.Kind == PollBusyLoop || r.Kind == PollRegion && r.Supported)
}

func (r *PollRecord) String() string {
	switch r.Kind {
	case PollRegion:
		return fmt.Sprintf("poll %d@%#08x region %d supported=%v", r.Size, r.Addr, r.Region, r.Supported)
	case PollBusyLoop:
		return "busy loop"
	}
	return "none"
}

type pollClass int

const (
	classOther pollClass = iota
	classFiller
	classLoad
	classCmp
	classBranch
)

func classify(k Kind) pollClass {
	switch k {
	case OP_NOP, OP_MOV, OP_MOVI, OP_MOVW_I, OP_MOVL_I, OP_MOVA,
		OP_SHLL, OP_SHAL, OP_SHLR, OP_SHAR, OP_ROTL, OP_ROTR, OP_ROTCL, OP_ROTCR,
		OP_SHLL2, OP_SHLL8, OP_SHLL16, OP_SHLR2, OP_SHLR8, OP_SHLR16,
		OP_AND, OP_OR, OP_XOR, OP_NOT, OP_ANDI, OP_ORI, OP_XORI,
		OP_EXTU_B, OP_EXTU_W, OP_EXTS_B, OP_EXTS_W, OP_SWAP_B, OP_SWAP_W:
		return classFiller
	case OP_MOVB_L, OP_MOVW_L, OP_MOVL_L,
		OP_MOVB_L4, OP_MOVW_L4, OP_MOVL_L4,
		OP_MOVB_L0, OP_MOVW_L0, OP_MOVL_L0,
		OP_MOVB_LG, OP_MOVW_LG, OP_MOVL_LG,
		OP_TSTM, OP_TAS:
		return classLoad
	case OP_CMP_EQ, OP_CMP_HS, OP_CMP_GE, OP_CMP_HI, OP_CMP_GT, OP_CMP_PZ, OP_CMP_PL,
		OP_CMP_IM, OP_CMP_STR, OP_TST, OP_TSTI, OP_CLRT, OP_SETT, OP_MOVT:
		return classCmp
	case OP_BT, OP_BF, OP_BT_S, OP_BF_S, OP_BRA, OP_BSR:
		return classBranch
	}
	return classOther
}

// staticTarget is the destination of a pc-relative branch.
func staticTarget(in *Inst) uint32 {
	switch in.D.Kind {
	case OP_BRA, OP_BSR:
		return disp12(in.PC, in.Op)
	}
	return disp8(in.PC, in.Op)
}

// regsWritten is a mask of the general registers an instruction may change.
func regsWritten(in *Inst) uint16 {
	n, m := fn(in.Op), fm(in.Op)
	switch in.D.Kind {
	case OP_MOVA, OP_ANDI, OP_ORI, OP_XORI,
		OP_MOVB_L4, OP_MOVW_L4, OP_MOVB_LG, OP_MOVW_LG, OP_MOVL_LG:
		return 1 << 0
	case OP_MOVB_P, OP_MOVW_P, OP_MOVL_P:
		return 1<<n | 1<<m
	case OP_TSTM, OP_TAS, OP_NOP, OP_CLRT, OP_SETT,
		OP_CMP_EQ, OP_CMP_HS, OP_CMP_GE, OP_CMP_HI, OP_CMP_GT, OP_CMP_PZ, OP_CMP_PL,
		OP_CMP_IM, OP_CMP_STR, OP_TST, OP_TSTI,
		OP_BT, OP_BF, OP_BT_S, OP_BF_S, OP_BRA, OP_BSR:
		return 0
	}
	return 1 << n
}

// pollTemplate is the part of a classification that depends only on the
// instruction words.
type pollTemplate struct {
	kind   PollKind
	load   int
	cmp    int
	branch int
}

type templateKey struct {
	hash uint32
	n    int
}

// detect classifies b and stores the record on it.
func (c *Cpu) detect(b *Block) {
	key := templateKey{b.Hash, len(b.Ins)}
	t, ok := c.templates[key]
	if !ok {
		t = shape(b)
		c.templates[key] = t
	}
	b.Poll = c.resolve(b, t)
}

// shape finds the load / compare / branch structure of a loop body.
func shape(b *Block) *pollTemplate {
	none := &pollTemplate{kind: PollNone, load: -1, cmp: -1, branch: -1}
	t := &pollTemplate{kind: PollNone, load: -1, cmp: -1, branch: -1}
	loads, cmps, branches := 0, 0, 0
	for i := range b.Ins {
		switch classify(b.Ins[i].D.Kind) {
		case classFiller:
		case classLoad:
			loads++
			t.load = i
		case classCmp:
			cmps++
			t.cmp = i
		case classBranch:
			branches++
			t.branch = i
		default:
			return none
		}
	}
	if branches != 1 || loads > 1 || cmps > 1 {
		return none
	}
	target := staticTarget(&b.Ins[t.branch])
	switch loads + cmps + branches {
	case 1:
		if target >= b.Start && target <= b.End {
			t.kind = PollBusyLoop
			return t
		}
	case 2:
		if loads == 1 && target == b.Start {
			t.kind = PollRegion
			return t
		}
	default:
		if loads == 1 && cmps == 1 && target == b.Start {
			t.kind = PollRegion
			return t
		}
	}
	return none
}

// resolve fills in the polled address for this particular block.
func (c *Cpu) resolve(b *Block, t *pollTemplate) *PollRecord {
	rec := &PollRecord{Kind: t.kind, Load: t.load, Cmp: t.cmp, Branch: t.branch}
	if t.kind != PollRegion {
		return rec
	}
	load := &b.Ins[t.load]
	addr, size, base := c.loadAddr(load)
	// the address must not move between iterations
	var written uint16
	for i := range b.Ins {
		written |= regsWritten(&b.Ins[i])
	}
	if written&base != 0 {
		return &PollRecord{Kind: PollNone, Load: -1, Cmp: -1, Branch: -1}
	}
	rec.Addr, rec.Size = addr, size
	if c.regions != nil {
		rec.Region = c.regions.Classify(addr)
		rec.Supported = c.regions.Actionable(rec.Region)
	}
	return rec
}

// loadAddr computes a qualifying load's effective address from the current
// registers, with the mask of registers it depends on.
func (c *Cpu) loadAddr(in *Inst) (addr uint32, size int, base uint16) {
	op := in.Op
	n, m := fn(op), fm(op)
	R := &c.R
	switch in.D.Kind {
	case OP_MOVB_L:
		return R[m], 1, 1 << m
	case OP_MOVW_L:
		return R[m], 2, 1 << m
	case OP_MOVL_L:
		return R[m], 4, 1 << m
	case OP_MOVB_L4:
		return R[m] + uint32(op&0xf), 1, 1 << m
	case OP_MOVW_L4:
		return R[m] + uint32(op&0xf)*2, 2, 1 << m
	case OP_MOVL_L4:
		return R[m] + uint32(op&0xf)*4, 4, 1 << m
	case OP_MOVB_L0:
		return R[0] + R[m], 1, 1<<0 | 1<<m
	case OP_MOVW_L0:
		return R[0] + R[m], 2, 1<<0 | 1<<m
	case OP_MOVL_L0:
		return R[0] + R[m], 4, 1<<0 | 1<<m
	case OP_MOVB_LG:
		return c.GBR + uint32(op&0xff), 1, 0
	case OP_MOVW_LG:
		return c.GBR + uint32(op&0xff)*2, 2, 0
	case OP_MOVL_LG:
		return c.GBR + uint32(op&0xff)*4, 4, 0
	case OP_TSTM:
		return c.GBR + R[0], 1, 1 << 0
	case OP_TAS:
		return R[n], 1, 1 << n
	}
	return 0, 0, 0
}
