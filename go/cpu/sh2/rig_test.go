package sh2

import (
	"encoding/binary"
	"testing"

	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

var testTable = NewTable()

const (
	codeBase  = 0x1000
	stackTop  = 0x8000
	sdramBase = 0x06000000

	illegalHandler = 0x2000
	slotHandler    = 0x2100
	irqHandler     = 0x2200
	trapHandler    = 0x2300

	irqVector = 64
)

// testBus is flat RAM at 0 and at the SDRAM base, mirrored through bit 29.
type testBus struct {
	*cpu.Mem
}

func newTestBus(t testing.TB) *testBus {
	m := cpu.NewMem(binary.BigEndian)
	if _, err := m.MemMapProt(0, 0x10000, cpu.PROT_ALL, "ram"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.MemMapProt(sdramBase, 0x10000, cpu.PROT_ALL, "sdram"); err != nil {
		t.Fatal(err)
	}
	return &testBus{m}
}

func (b *testBus) read(addr uint32, size int) uint32 {
	v, _ := b.ReadUint(addr&^0x20000000, size, 0)
	return v
}

func (b *testBus) Read8(addr uint32) uint8   { return uint8(b.read(addr, 1)) }
func (b *testBus) Read16(addr uint32) uint16 { return uint16(b.read(addr, 2)) }
func (b *testBus) Read32(addr uint32) uint32 { return b.read(addr, 4) }
func (b *testBus) Fetch(pc uint32) uint16    { return uint16(b.read(pc, 2)) }

func (b *testBus) Write8(addr uint32, v uint8)   { b.WriteUint(addr&^0x20000000, 1, 0, uint32(v)) }
func (b *testBus) Write16(addr uint32, v uint16) { b.WriteUint(addr&^0x20000000, 2, 0, uint32(v)) }
func (b *testBus) Write32(addr uint32, v uint32) { b.WriteUint(addr&^0x20000000, 4, 0, v) }

func (b *testBus) code(addr uint32, ops ...uint16) {
	for i, op := range ops {
		b.Write16(addr+uint32(i)*2, op)
	}
}

type testIntc struct {
	level, vector int
	acks          int
}

func (i *testIntc) Level(core int) int  { return i.level }
func (i *testIntc) Vector(core int) int { return i.vector }
func (i *testIntc) Ack(core int) {
	i.acks++
	i.level = 0
}

type testSched struct {
	polls []*PollRecord
	onPoll func()
}

func (s *testSched) StartPolling(core int, rec *PollRecord) {
	s.polls = append(s.polls, rec)
	if s.onPoll != nil {
		s.onPoll()
	}
}

const (
	regionSDRAM RegionKind = iota + 1
	regionOther
)

type testRegions struct{}

func (testRegions) Classify(addr uint32) RegionKind {
	if Canonical(addr)>>24 == 6 {
		return regionSDRAM
	}
	return regionOther
}

func (testRegions) Actionable(k RegionKind) bool { return k == regionSDRAM }

type rig struct {
	bus   *testBus
	intc  *testIntc
	sched *testSched
	cpu   *Cpu
}

func newRig(t testing.TB, config *models.Config) *rig {
	if config == nil {
		config = models.NewConfig()
	}
	r := &rig{bus: newTestBus(t), intc: &testIntc{}, sched: &testSched{}}
	env := Env{Bus: r.bus, Intc: r.intc, Sched: r.sched, Regions: testRegions{}}
	c, err := New(0, testTable, env, config)
	if err != nil {
		t.Fatal(err)
	}
	r.cpu = c
	r.bus.Watch(c.Cache().Invalidate)

	vectors := map[int]uint32{
		VEC_POWER_PC: codeBase,
		VEC_POWER_SP: stackTop,
		VEC_ILLEGAL:  illegalHandler,
		VEC_SLOT:     slotHandler,
		irqVector:    irqHandler,
		32:           trapHandler,
	}
	for vec, addr := range vectors {
		r.bus.Write32(uint32(vec)*4, addr)
	}
	for _, h := range []uint32{illegalHandler, slotHandler, irqHandler, trapHandler} {
		r.bus.code(h, opHalt, opNop)
	}
	c.Reset(0)
	c.SR = 0
	return r
}

// run executes until pc spins on the halt loop at stop or the budget runs out
func (r *rig) run(t testing.TB, stop uint32, budget int) {
	for budget > 0 {
		budget -= r.cpu.Run(64)
		if r.cpu.PC == stop && r.bus.Fetch(stop) == opHalt {
			return
		}
	}
	t.Fatalf("did not reach %#x, pc=%#x", stop, r.cpu.PC)
}

// a few encodings
const (
	opNop   = 0x0009
	opHalt  = 0xaffe // bra self
	opRts   = 0x000b
	opRte   = 0x002b
	opSleep = 0x001b
	opClrt  = 0x0008
	opSett  = 0x0018
	opDiv0u = 0x0019
	opBadOp = 0xffff
)

func reg2(base uint16, m, n int) uint16 { return base | uint16(n)<<8 | uint16(m)<<4 }
func reg1(base uint16, n int) uint16    { return base | uint16(n)<<8 }

func movi(imm int8, n int) uint16   { return 0xe000 | uint16(n)<<8 | uint16(uint8(imm)) }
func addi(imm int8, n int) uint16   { return 0x7000 | uint16(n)<<8 | uint16(uint8(imm)) }
func bra(from, to uint32) uint16    { return 0xa000 | uint16((to-from-4)/2)&0xfff }
func bsr(from, to uint32) uint16    { return 0xb000 | uint16((to-from-4)/2)&0xfff }
func bcond(base uint16, from, to uint32) uint16 {
	return base | uint16(uint8(int8(int32(to-from-4)/2)))
}
func bt(from, to uint32) uint16  { return bcond(0x8900, from, to) }
func bf(from, to uint32) uint16  { return bcond(0x8b00, from, to) }
func bfs(from, to uint32) uint16 { return bcond(0x8f00, from, to) }

func movlLoad(m, n int) uint16  { return reg2(0x6002, m, n) }
func movlStore(m, n int) uint16 { return reg2(0x2002, m, n) }
func cmpeq(m, n int) uint16     { return reg2(0x3000, m, n) }
func tst(m, n int) uint16       { return reg2(0x2008, m, n) }
func add(m, n int) uint16       { return reg2(0x300c, m, n) }
func macw(m, n int) uint16      { return reg2(0x400f, m, n) }
func macl(m, n int) uint16      { return reg2(0x000f, m, n) }
func div1(m, n int) uint16      { return reg2(0x3004, m, n) }
func dt(n int) uint16           { return reg1(0x4010, n) }
func tas(n int) uint16          { return reg1(0x401b, n) }
func movt(n int) uint16         { return reg1(0x0029, n) }
func rotcl(n int) uint16        { return reg1(0x4024, n) }
func shll16(n int) uint16       { return reg1(0x4028, n) }
func extuw(m, n int) uint16     { return reg2(0x600d, m, n) }
func tstb(imm uint8) uint16     { return 0xcc00 | uint16(imm) }
func trapa(imm uint8) uint16    { return 0xc300 | uint16(imm) }
