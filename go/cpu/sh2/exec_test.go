package sh2

import (
	"testing"

	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

func tierConfigs() map[string]*models.Config {
	interp := models.NewConfig()
	interp.PromoteThreshold = 0
	interp.PollDetect = false
	tier2 := models.NewConfig()
	tier2.PromoteThreshold = 1
	tier2.PollDetect = false
	return map[string]*models.Config{"interp": interp, "tier2": tier2}
}

func TestDelaySlotPCRelative(t *testing.T) {
	table := []struct {
		name string
		slot uint16
		reg  int
		want uint32
	}{
		// base is the branch target + 2, not the slot address + 4
		{"mov.w", 0x9200, 2, 0x0009},
		{"mov.l", 0xd201, 2, 0xaffe0009},
		{"mova", 0xc701, 0, 0x1014},
	}
	for name, config := range tierConfigs() {
		for _, v := range table {
			r := newRig(t, config)
			r.bus.code(codeBase, bra(codeBase, 0x1010), v.slot)
			// what a slot-unaware base would pick up
			r.bus.code(0x1004, 0xe17f, 0xe17f, 0xe17f, 0xe17f, 0xe17f, 0xe17f)
			r.bus.code(0x1010, opNop, opNop, opHalt, opNop)
			// run it twice so tier 2 gets a turn
			for i := 0; i < 2; i++ {
				r.cpu.RegWrite(PC, codeBase)
				r.cpu.R[v.reg] = 0
				r.run(t, 0x1014, 200)
				if got := r.cpu.R[v.reg]; got != v.want {
					t.Errorf("%s %s: r%d = %#x, want %#x", name, v.name, v.reg, got, v.want)
				}
			}
		}
	}
}

func TestBranchCycles(t *testing.T) {
	r := newRig(t, nil)
	// clrt; bt +0 (not taken); sett; bt +0 (taken)
	r.bus.code(codeBase, opClrt, bt(0x1002, 0x1006), opSett, bt(0x1006, 0x100a), opNop, opHalt, opNop)
	b := r.cpu.build(codeBase)
	if len(b.Ins) != 2 {
		t.Fatalf("first block should end at bt: %d ins", len(b.Ins))
	}
	r.cpu.PC = codeBase
	r.cpu.Cache().Insert(b)
	if got := r.cpu.interpret(b); got != 2 {
		t.Errorf("not taken bt: %d cycles, want 2", got)
	}
	if r.cpu.PC != 0x1004 {
		t.Errorf("pc after untaken bt = %#x", r.cpu.PC)
	}
	b = r.cpu.build(0x1004)
	if got := r.cpu.interpret(b); got != 4 {
		t.Errorf("taken bt: %d cycles, want 4", got)
	}
	if r.cpu.PC != 0x100a {
		t.Errorf("pc after taken bt = %#x", r.cpu.PC)
	}
}

func TestTAS(t *testing.T) {
	for _, bypass := range []bool{false, true} {
		config := models.NewConfig()
		config.TASBypass = bypass
		r := newRig(t, config)
		var addrs []uint32
		_, err := r.cpu.HookAdd(cpu.HOOK_MEM_WRITE, func(_ cpu.Cpu, access int, addr uint32, size int, val uint32) {
			addrs = append(addrs, addr)
		}, 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		r.cpu.R[1] = sdramBase + 0x100
		r.bus.code(codeBase, tas(1), movt(2), tas(1), movt(3), opHalt, opNop)
		r.run(t, 0x1008, 100)
		if r.cpu.R[2] != 1 || r.cpu.R[3] != 0 {
			t.Errorf("T after tas: %d %d, want 1 0", r.cpu.R[2], r.cpu.R[3])
		}
		if v := r.bus.Read8(sdramBase + 0x100); v != 0x80 {
			t.Errorf("byte after tas = %#x", v)
		}
		want := uint32(sdramBase + 0x100)
		if bypass {
			want |= 0x20000000
		}
		if len(addrs) != 2 || addrs[0] != want {
			t.Errorf("tas writes %#x, want 2 at %#x", addrs, want)
		}
	}
}

func TestMACW(t *testing.T) {
	table := []struct {
		s          bool
		mach, macl uint32
		a, b       uint16
		wantH      uint32
		wantL      uint32
		sat        bool
	}{
		{false, 0, 10, 3, 4, 0, 22, false},
		{false, 0, 0, 0xffff, 2, 0xffffffff, 0xfffffffe, false},
		{true, 0, 0x7ffffff0, 0x7fff, 0x7fff, 1, 0x7fffffff, true},
		{true, 0, 0x80000010, 0x8000, 0x7fff, 1, 0x80000000, true},
		{true, 0, 5, 0xfffe, 3, 0, 0xffffffff, false},
	}
	for i, v := range table {
		r := newRig(t, nil)
		if v.s {
			r.cpu.SR |= SR_S
		}
		r.cpu.MACH, r.cpu.MACL = v.mach, v.macl
		r.bus.Write16(sdramBase, v.a)
		r.bus.Write16(sdramBase+0x10, v.b)
		r.cpu.R[1], r.cpu.R[2] = sdramBase, sdramBase+0x10
		r.bus.code(codeBase, macw(2, 1), opHalt, opNop)
		r.run(t, 0x1002, 100)
		if r.cpu.MACH != v.wantH || r.cpu.MACL != v.wantL || r.cpu.MACSat != v.sat {
			t.Errorf("%d: mac = %08x:%08x sat=%v, want %08x:%08x sat=%v",
				i, r.cpu.MACH, r.cpu.MACL, r.cpu.MACSat, v.wantH, v.wantL, v.sat)
		}
		if r.cpu.R[1] != sdramBase+2 || r.cpu.R[2] != sdramBase+0x12 {
			t.Errorf("%d: post increment r1=%#x r2=%#x", i, r.cpu.R[1], r.cpu.R[2])
		}
	}
}

func TestMACL(t *testing.T) {
	table := []struct {
		s          bool
		mach, macl uint32
		a, b       uint32
		wantH      uint32
		wantL      uint32
		sat        bool
	}{
		{false, 0, 0, 0x10000, 0x10000, 1, 0, false},
		{false, 0, 0, 0xffffffff, 2, 0xffffffff, 0xfffffffe, false},
		{true, 0x00007fff, 0xfffffff0, 0x100, 0x100, 0x00007fff, 0xffffffff, true},
		{true, 0xffff8000, 0x00000010, 0xffffff00, 0x100, 0xffff8000, 0x00000000, true},
		{true, 0, 0, 0x7fffffff, 2, 0, 0xfffffffe, false},
	}
	for i, v := range table {
		r := newRig(t, nil)
		if v.s {
			r.cpu.SR |= SR_S
		}
		r.cpu.MACH, r.cpu.MACL = v.mach, v.macl
		r.bus.Write32(sdramBase, v.a)
		r.bus.Write32(sdramBase+0x10, v.b)
		r.cpu.R[1], r.cpu.R[2] = sdramBase, sdramBase+0x10
		r.bus.code(codeBase, macl(2, 1), opHalt, opNop)
		r.run(t, 0x1002, 100)
		if r.cpu.MACH != v.wantH || r.cpu.MACL != v.wantL || r.cpu.MACSat != v.sat {
			t.Errorf("%d: mac = %08x:%08x sat=%v, want %08x:%08x sat=%v",
				i, r.cpu.MACH, r.cpu.MACL, r.cpu.MACSat, v.wantH, v.wantL, v.sat)
		}
	}
}

// unsigned 32/16 division from the programming manual:
// shll16 r0; div0u; div1 r0,r1 x16; rotcl r1; extu.w r1,r1
func TestDiv1(t *testing.T) {
	table := []struct{ dividend, divisor uint32 }{
		{100000, 7},
		{65535, 1},
		{1, 3},
		{0x7fff0000, 0xffff},
		{12345678, 321},
	}
	code := []uint16{shll16(0), opDiv0u}
	for i := 0; i < 16; i++ {
		code = append(code, div1(0, 1))
	}
	code = append(code, rotcl(1), extuw(1, 1), opHalt, opNop)
	stop := codeBase + uint32(len(code)-2)*2
	for name, config := range tierConfigs() {
		for _, v := range table {
			r := newRig(t, config)
			r.bus.code(codeBase, code...)
			for i := 0; i < 2; i++ {
				r.cpu.RegWrite(PC, codeBase)
				r.cpu.R[0], r.cpu.R[1] = v.divisor, v.dividend
				r.run(t, stop, 200)
				if want := v.dividend / v.divisor; r.cpu.R[1] != want {
					t.Errorf("%s: %d / %d = %d, want %d", name, v.dividend, v.divisor, r.cpu.R[1], want)
				}
			}
		}
	}
}

func TestDiv0s(t *testing.T) {
	r := newRig(t, nil)
	r.cpu.R[1], r.cpu.R[2] = 0x80000000, 1
	r.bus.code(codeBase, reg2(0x2007, 2, 1), opHalt, opNop)
	r.run(t, 0x1002, 50)
	if !r.cpu.Q() || r.cpu.M() || !r.cpu.T() {
		t.Errorf("div0s: sr=%#x", r.cpu.SR)
	}
}

func TestIllegal(t *testing.T) {
	r := newRig(t, nil)
	r.bus.code(codeBase, opNop, opBadOp)
	sr := r.cpu.SR
	r.run(t, illegalHandler, 100)
	if r.cpu.R[SP] != stackTop-8 {
		t.Fatalf("sp = %#x", r.cpu.R[SP])
	}
	if pc := r.bus.Read32(stackTop - 8); pc != 0x1002 {
		t.Errorf("saved pc = %#x, want the illegal instruction", pc)
	}
	if got := r.bus.Read32(stackTop - 4); got != sr {
		t.Errorf("saved sr = %#x, want %#x", got, sr)
	}
	if r.cpu.Stats().Exceptions != 1 {
		t.Errorf("exceptions = %d", r.cpu.Stats().Exceptions)
	}
}

func TestSlotIllegal(t *testing.T) {
	for name, config := range tierConfigs() {
		r := newRig(t, config)
		r.bus.code(codeBase, bra(codeBase, 0x1010), opRts)
		r.run(t, slotHandler, 100)
		if pc := r.bus.Read32(stackTop - 8); pc != codeBase {
			t.Errorf("%s: saved pc = %#x, want the branch", name, pc)
		}
	}
}

func TestTrapaRte(t *testing.T) {
	r := newRig(t, nil)
	r.bus.code(codeBase, trapa(32), movi(5, 3), opHalt, opNop)
	r.bus.code(trapHandler, movi(7, 2), opRte, opNop)
	r.run(t, 0x1004, 200)
	if r.cpu.R[2] != 7 || r.cpu.R[3] != 5 {
		t.Errorf("r2=%d r3=%d", r.cpu.R[2], r.cpu.R[3])
	}
	if r.cpu.R[SP] != stackTop {
		t.Errorf("sp not restored: %#x", r.cpu.R[SP])
	}
}

func TestSubroutine(t *testing.T) {
	r := newRig(t, nil)
	// bsr sub; mov #1,r1 (slot); halt
	r.bus.code(codeBase, bsr(codeBase, 0x1100), movi(1, 1), opHalt, opNop)
	r.bus.code(0x1100, opRts, movi(2, 2))
	r.run(t, 0x1004, 200)
	if r.cpu.R[1] != 1 || r.cpu.R[2] != 2 || r.cpu.PR != 0x1004 {
		t.Errorf("r1=%d r2=%d pr=%#x", r.cpu.R[1], r.cpu.R[2], r.cpu.PR)
	}
}

func TestAlu(t *testing.T) {
	table := []struct {
		name       string
		op         uint16
		rn, rm, t  uint32
		want, wantT uint32
	}{
		{"addc", reg2(0x300e, 2, 1), 0xffffffff, 1, 0, 0, 1},
		{"addc carry in", reg2(0x300e, 2, 1), 1, 1, 1, 3, 0},
		{"addv", reg2(0x300f, 2, 1), 0x7fffffff, 1, 0, 0x80000000, 1},
		{"subc", reg2(0x300a, 2, 1), 0, 1, 0, 0xffffffff, 1},
		{"subv", reg2(0x300b, 2, 1), 0x80000000, 1, 0, 0x7fffffff, 1},
		{"negc", reg2(0x600a, 2, 1), 0, 1, 0, 0xffffffff, 1},
		{"cmp/str", reg2(0x200c, 2, 1), 0x12345678, 0xff34ffff, 0, 0x12345678, 1},
		{"cmp/ge", reg2(0x3003, 2, 1), 0xffffffff, 0, 0, 0xffffffff, 0},
		{"cmp/hs", reg2(0x3002, 2, 1), 0xffffffff, 0, 0, 0xffffffff, 1},
		{"xtrct", reg2(0x200d, 2, 1), 0x11112222, 0x33334444, 0, 0x44441111, 0},
		{"swap.b", reg2(0x6008, 2, 1), 0, 0x11223344, 0, 0x11224433, 0},
		{"exts.b", reg2(0x600e, 2, 1), 0, 0x80, 0, 0xffffff80, 0},
		{"shar", reg1(0x4021, 1), 0x80000001, 0, 0, 0xc0000000, 1},
		{"rotcr", reg1(0x4025, 1), 2, 0, 1, 0x80000001, 0},
		{"rotl", reg1(0x4004, 1), 0x80000000, 0, 0, 1, 1},
	}
	for _, v := range table {
		r := newRig(t, nil)
		r.cpu.R[1], r.cpu.R[2] = v.rn, v.rm
		r.cpu.SetT(v.t == 1)
		r.bus.code(codeBase, v.op, opHalt, opNop)
		r.run(t, 0x1002, 50)
		if r.cpu.R[1] != v.want || r.cpu.tbit() != v.wantT {
			t.Errorf("%s: r1=%#x t=%d, want %#x t=%d", v.name, r.cpu.R[1], r.cpu.tbit(), v.want, v.wantT)
		}
	}
}

func TestInterruptAtBlockBoundary(t *testing.T) {
	r := newRig(t, nil)
	var code []uint16
	for i := 0; i < 10; i++ {
		code = append(code, addi(1, 1))
	}
	code = append(code, opHalt, opNop)
	r.bus.code(codeBase, code...)
	r.intc.level, r.intc.vector = 5, irqVector
	r.cpu.Run(1)
	if r.cpu.R[1] != 10 {
		t.Errorf("interrupt taken mid-block: r1=%d", r.cpu.R[1])
	}
	if r.cpu.PC != irqHandler || r.cpu.IMask() != 5 || r.intc.acks != 1 {
		t.Errorf("pc=%#x imask=%d acks=%d", r.cpu.PC, r.cpu.IMask(), r.intc.acks)
	}
	if pc := r.bus.Read32(stackTop - 8); pc != 0x1014 {
		t.Errorf("saved pc = %#x", pc)
	}
}

func TestInterruptMasked(t *testing.T) {
	r := newRig(t, nil)
	r.cpu.SetIMask(6)
	r.bus.code(codeBase, opHalt, opNop)
	r.intc.level, r.intc.vector = 5, irqVector
	r.cpu.Run(100)
	if r.cpu.PC != codeBase || r.intc.acks != 0 {
		t.Errorf("masked interrupt accepted: pc=%#x", r.cpu.PC)
	}
	r.intc.level = 16
	r.cpu.Run(100)
	if r.cpu.PC != irqHandler {
		t.Errorf("nmi not accepted: pc=%#x", r.cpu.PC)
	}
}

func TestSleep(t *testing.T) {
	r := newRig(t, nil)
	r.bus.code(codeBase, opNop, opSleep, opHalt, opNop)
	if used := r.cpu.Run(100); used != 100 || !r.cpu.Sleeping {
		t.Fatalf("sleep: used %d, sleeping=%v", used, r.cpu.Sleeping)
	}
	if used := r.cpu.Run(50); used != 50 {
		t.Errorf("sleeping core used %d of 50", used)
	}
	r.intc.level, r.intc.vector = 3, irqVector
	r.cpu.Run(100)
	if r.cpu.Sleeping || r.cpu.PC != irqHandler {
		t.Errorf("not woken: pc=%#x", r.cpu.PC)
	}
	if pc := r.bus.Read32(stackTop - 8); pc != 0x1004 {
		t.Errorf("saved pc = %#x, want the instruction after sleep", pc)
	}
}

func TestOddPC(t *testing.T) {
	config := models.NewConfig()
	config.Output = &discard{}
	r := newRig(t, config)
	r.bus.code(codeBase, opHalt, opNop)
	r.cpu.RegWrite(PC, codeBase|1)
	if debugChecks {
		defer func() {
			if recover() == nil {
				t.Error("odd pc did not panic")
			}
		}()
	}
	r.cpu.Run(10)
	if r.cpu.PC != codeBase {
		t.Errorf("pc = %#x", r.cpu.PC)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
