package sh2

import (
	"testing"

	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

func TestPollClassify(t *testing.T) {
	const at = codeBase
	table := []struct {
		name      string
		code      []uint16
		kind      PollKind
		supported bool
	}{
		{"bra self", []uint16{bra(at, at), opNop}, PollBusyLoop, false},
		{"bsr self", []uint16{bsr(at, at), opNop}, PollBusyLoop, false},
		{"bt inside", []uint16{opNop, bt(at+2, at+2)}, PollBusyLoop, false},
		{"nops bsr -2", []uint16{opNop, opNop, 0xbffe /* bsr -2 */, opNop}, PollBusyLoop, false},
		{"load cmp bf", []uint16{movlLoad(1, 0), cmpeq(2, 0), bf(at+4, at)}, PollRegion, true},
		{"load filler cmp bf", []uint16{movlLoad(1, 0), 0x600c /* extu.b */, opNop, cmpeq(2, 0), bf(at+8, at)}, PollRegion, true},
		{"tst.b gbr", []uint16{tstb(1), bt(at+2, at)}, PollRegion, true},
		{"tas", []uint16{tas(1), bf(at+2, at)}, PollRegion, true},
		{"rom", []uint16{movlLoad(3, 0), tst(0, 0), bt(at+4, at)}, PollRegion, false},
		{"countdown", []uint16{dt(1), bf(at+2, at)}, PollNone, false},
		{"base clobbered", []uint16{movlLoad(1, 1), cmpeq(2, 1), bf(at+4, at)}, PollNone, false},
		{"base moved", []uint16{movlLoad(1, 0), addi(4, 1), cmpeq(2, 0), bf(at+6, at)}, PollNone, false},
		{"two loads", []uint16{movlLoad(1, 0), movlLoad(1, 4), cmpeq(2, 0), bf(at+6, at)}, PollNone, false},
		{"exits", []uint16{movlLoad(1, 0), cmpeq(2, 0), bf(at+4, 0x1100)}, PollNone, false},
		{"two compares", []uint16{movlLoad(1, 0), cmpeq(2, 0), tst(0, 0), bf(at+6, at)}, PollNone, false},
		{"jmp", []uint16{reg1(0x402b, 4), opNop}, PollNone, false},
	}
	for _, v := range table {
		r := newRig(t, nil)
		r.cpu.R[1] = sdramBase + 0x100
		r.cpu.R[3] = 0x2000000
		r.cpu.GBR = sdramBase
		r.bus.code(at, v.code...)
		b := r.cpu.build(at)
		r.cpu.detect(b)
		rec := b.Poll
		if rec == nil {
			t.Fatalf("%s: no record", v.name)
		}
		if rec.Kind != v.kind || rec.Kind == PollRegion && rec.Supported != v.supported {
			t.Errorf("%s: got %s, want %s supported=%v", v.name, rec, v.kind, v.supported)
		}
	}
}

func TestPollRecordAddress(t *testing.T) {
	r := newRig(t, nil)
	r.cpu.R[1] = sdramBase + 0x40
	// mov.l @(2,r1),r0
	r.bus.code(codeBase, reg2(0x5002, 1, 0), cmpeq(2, 0), bf(0x1004, codeBase))
	b := r.cpu.build(codeBase)
	r.cpu.detect(b)
	if b.Poll.Addr != sdramBase+0x48 || b.Poll.Size != 4 || b.Poll.Region != regionSDRAM {
		t.Errorf("record %+v", b.Poll)
	}
	if b.Poll.Load != 0 || b.Poll.Cmp != 1 || b.Poll.Branch != 2 {
		t.Errorf("roles %d %d %d", b.Poll.Load, b.Poll.Cmp, b.Poll.Branch)
	}
}

func TestPollTemplateCache(t *testing.T) {
	r := newRig(t, nil)
	code := []uint16{movlLoad(1, 0), cmpeq(2, 0), bf(0x1004, codeBase)}
	r.bus.code(codeBase, code...)
	code[2] = bf(0x1104, 0x1100)
	r.bus.code(0x1100, code...)
	r.cpu.R[1] = sdramBase
	a := r.cpu.build(codeBase)
	r.cpu.detect(a)
	r.cpu.R[1] = 0x2000000
	b := r.cpu.build(0x1100)
	r.cpu.detect(b)
	if len(r.cpu.templates) != 1 {
		t.Errorf("%d templates for one shape", len(r.cpu.templates))
	}
	// the address is still resolved per block
	if a.Poll.Addr == b.Poll.Addr || !a.Poll.Supported || b.Poll.Supported {
		t.Errorf("records %s / %s", a.Poll, b.Poll)
	}
}

// pollRig runs a cmp/eq poll on sdramBase+0x100 that exits when it reads
// 0xffffffff.
func pollRig(t *testing.T) *rig {
	config := models.NewConfig()
	config.PromoteThreshold = 1
	r := newRig(t, config)
	r.cpu.R[1] = sdramBase + 0x100
	r.cpu.R[2] = 0xffffffff
	r.bus.code(codeBase, movlLoad(1, 0), cmpeq(2, 0), bf(0x1004, codeBase), opHalt, opNop)
	return r
}

func TestPollActivates(t *testing.T) {
	r := pollRig(t)
	r.cpu.Run(10000)
	if len(r.sched.polls) != 1 {
		t.Fatalf("%d StartPolling calls", len(r.sched.polls))
	}
	rec := r.sched.polls[0]
	if rec.Kind != PollRegion || rec.Addr != sdramBase+0x100 {
		t.Errorf("record %s", rec)
	}
	p := r.cpu.Poller()
	if p.State != ActivePoll || p.Spins != r.cpu.Config().PollLimit {
		t.Errorf("poller %+v", p)
	}
	if r.cpu.Consumed > 100 {
		t.Errorf("Run did not return on poll: %d cycles", r.cpu.Consumed)
	}
	r.cpu.Wake()
	if r.cpu.Poller().State != NoPoll {
		t.Error("wake left the poller active")
	}

	// the awaited value arrives and the loop exits
	r.bus.Write32(sdramBase+0x100, 0xffffffff)
	r.run(t, 0x1006, 200)
}

func TestPollStability(t *testing.T) {
	const changes = 10
	r := pollRig(t)
	entries, fired := 0, 0
	_, err := r.cpu.HookAdd(cpu.HOOK_BLOCK, func(_ cpu.Cpu, addr, size uint32) {
		if addr != codeBase {
			return
		}
		entries++
		if entries <= changes {
			r.bus.Write32(sdramBase+0x100, uint32(entries))
		}
	}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	r.sched.onPoll = func() { fired = entries }
	for i := 0; i < 100 && len(r.sched.polls) == 0; i++ {
		r.cpu.Run(64)
	}
	if len(r.sched.polls) != 1 {
		t.Fatalf("%d StartPolling calls", len(r.sched.polls))
	}
	// the limit is only counted over the stable run after the last change
	if want := changes + 1 + r.cpu.Config().PollLimit; fired != want {
		t.Errorf("polling started on entry %d, want %d", fired, want)
	}
}

// the same loop entered with a different base register polls the new word
func TestPollRetarget(t *testing.T) {
	r := pollRig(t)
	r.cpu.Run(10000)
	if len(r.sched.polls) != 1 || r.sched.polls[0].Addr != sdramBase+0x100 {
		t.Fatalf("first poll %v", r.sched.polls)
	}
	first := r.sched.polls[0]
	r.cpu.Wake()
	r.cpu.R[1] = sdramBase + 0x200
	r.cpu.Run(10000)
	if len(r.sched.polls) != 2 {
		t.Fatalf("%d StartPolling calls", len(r.sched.polls))
	}
	rec := r.sched.polls[1]
	if rec.Addr != sdramBase+0x200 || !rec.Supported {
		t.Errorf("second poll %s", rec)
	}
	if first.Addr != sdramBase+0x100 {
		t.Error("the first record was changed in place")
	}
	if b := r.cpu.Cache().Lookup(codeBase); b.Poll != rec {
		t.Errorf("block kept %s", b.Poll)
	}

	// moved somewhere that cannot be watched, the core keeps running
	r.cpu.Wake()
	r.cpu.R[1] = 0x3000
	if used := r.cpu.Run(2000); used < 2000 {
		t.Errorf("run stopped early: %d", used)
	}
	if len(r.sched.polls) != 2 {
		t.Errorf("parked on an unsupported region: %s", r.sched.polls[len(r.sched.polls)-1])
	}
}

// an interrupt taken after the block that completes the poll wins
func TestPollYieldsToInterrupt(t *testing.T) {
	r := pollRig(t)
	limit := r.cpu.Config().PollLimit
	for i := 0; i < 1000 && r.cpu.Poller().Spins < limit-1; i++ {
		r.cpu.Run(1)
	}
	if r.cpu.Poller().Spins != limit-1 {
		t.Fatalf("poller %+v", r.cpu.Poller())
	}
	r.intc.level, r.intc.vector = 1, irqVector
	r.cpu.Run(1)
	if len(r.sched.polls) != 0 {
		t.Errorf("scheduler told after the interrupt: %s", r.sched.polls[0])
	}
	if r.cpu.PC != irqHandler || r.intc.acks != 1 {
		t.Errorf("pc %#x acks %d", r.cpu.PC, r.intc.acks)
	}
	if r.cpu.Poller().State != NoPoll {
		t.Errorf("poller %+v", r.cpu.Poller())
	}
}

func TestPollLeaveResets(t *testing.T) {
	r := pollRig(t)
	b := r.cpu.block(codeBase)
	b.Hits = 10
	r.cpu.detect(b)
	r.cpu.pollEnter(b)
	r.cpu.pollEnter(b)
	if r.cpu.Poller().Spins != 1 {
		t.Fatalf("spins %d", r.cpu.Poller().Spins)
	}
	other := r.cpu.block(0x1006)
	r.cpu.pollEnter(other)
	if p := r.cpu.Poller(); p.Spins != 0 || p.Block != nil || p.State != NoPoll {
		t.Errorf("poller not reset on leaving: %+v", p)
	}
}

func TestBusyLoopActivates(t *testing.T) {
	config := models.NewConfig()
	config.PromoteThreshold = 3
	r := newRig(t, config)
	r.bus.code(codeBase, opHalt, opNop)
	r.cpu.Run(10000)
	if len(r.sched.polls) != 1 || r.sched.polls[0].Kind != PollBusyLoop {
		t.Fatalf("polls %v", r.sched.polls)
	}
}

func TestPollDetectOff(t *testing.T) {
	config := models.NewConfig()
	config.PollDetect = false
	r := newRig(t, config)
	r.bus.code(codeBase, opHalt, opNop)
	if used := r.cpu.Run(5000); used < 5000 {
		t.Errorf("run stopped early: %d", used)
	}
	if len(r.sched.polls) != 0 {
		t.Error("scheduler told with detection off")
	}
}

func TestPollWithoutTier2(t *testing.T) {
	config := models.NewConfig()
	config.PromoteThreshold = 0
	r := newRig(t, config)
	r.bus.code(codeBase, opHalt, opNop)
	r.cpu.Run(10000)
	b := r.cpu.Cache().Lookup(codeBase)
	if b.Compiled() {
		t.Error("compiled with tier 2 off")
	}
	if b.Poll == nil || b.Poll.Kind != PollBusyLoop || len(r.sched.polls) != 1 {
		t.Errorf("busy loop not found: %v", b.Poll)
	}
}
