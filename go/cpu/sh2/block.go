package sh2

import (
	"fmt"
	"hash/crc32"
)

type Inst struct {
	Op uint16
	PC uint32
	D  *Desc
}

func (i *Inst) String() string {
	return fmt.Sprintf("%#08x: %04x %s", i.PC, i.Op, i.D.Name)
}

// Block is a straight-line run of decoded instructions ending at a branch
// (and its delay slot), an illegal instruction, or the length limit.
type Block struct {
	Start uint32
	// address of the last instruction
	End  uint32
	Ins  []Inst
	Hash uint32
	Hits uint32
	// false once a write has hit the block's bytes
	Valid bool
	// nil until the block is first promoted
	Poll *PollRecord

	compiled func(*Cpu) int
	cycles   int // static cost of all instructions
	// last block seen after this one
	next *Block
}

func (b *Block) Size() uint32 {
	return b.End + 2 - b.Start
}

func (b *Block) Compiled() bool {
	return b.compiled != nil
}

func (b *Block) String() string {
	state := "live"
	if !b.Valid {
		state = "dead"
	}
	return fmt.Sprintf("block %#08x-%#08x (%d ins, hash %08x, %d hits, %s)", b.Start, b.End+2, len(b.Ins), b.Hash, b.Hits, state)
}

func hashWords(ins []Inst) uint32 {
	var buf [2]byte
	var h uint32
	for _, in := range ins {
		buf[0], buf[1] = byte(in.Op>>8), byte(in.Op)
		h = crc32.Update(h, crc32.IEEETable, buf[:])
	}
	return h
}

// sameWords compares the instruction words of two blocks.
func sameWords(a, b *Block) bool {
	if len(a.Ins) != len(b.Ins) {
		return false
	}
	for i := range a.Ins {
		if a.Ins[i].Op != b.Ins[i].Op {
			return false
		}
	}
	return true
}

// build decodes a new block at pc.
func (c *Cpu) build(pc uint32) *Block {
	max := c.config.MaxBlockLen
	b := &Block{Start: pc, Valid: true, Ins: make([]Inst, 0, 8)}
	for addr := pc; ; addr += 2 {
		op := c.fetch(addr)
		d := c.table.Decode(op)
		b.Ins = append(b.Ins, Inst{Op: op, PC: addr, D: d})
		b.cycles += int(d.Cycles)
		if d.Delayed {
			addr += 2
			op = c.fetch(addr)
			d = c.table.Decode(op)
			b.Ins = append(b.Ins, Inst{Op: op, PC: addr, D: d})
			b.cycles += int(d.Cycles)
			break
		}
		if d.Branch || d.Kind == OP_ILLEGAL || len(b.Ins) >= max {
			break
		}
	}
	b.End = b.Ins[len(b.Ins)-1].PC
	b.Hash = hashWords(b.Ins)
	return b
}

// block returns the live block at pc, building it on a miss.
func (c *Cpu) block(pc uint32) *Block {
	if b := c.cache.Get(pc); b != nil {
		if debugChecks {
			c.verify(b)
		}
		return b
	}
	return c.cache.Insert(c.build(pc))
}

// verify rereads a cached block from memory and compares the hash.
func (c *Cpu) verify(b *Block) {
	var buf [2]byte
	var h uint32
	for i := range b.Ins {
		op := c.bus.Fetch(b.Ins[i].PC)
		buf[0], buf[1] = byte(op>>8), byte(op)
		h = crc32.Update(h, crc32.IEEETable, buf[:])
	}
	if h != b.Hash {
		c.fault("stale %s: memory hash %08x", b, h)
	}
}
