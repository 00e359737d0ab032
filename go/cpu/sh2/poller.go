package sh2

type PollState int

const (
	NoPoll PollState = iota
	ActivePoll
)

func (s PollState) String() string {
	if s == ActivePoll {
		return "active"
	}
	return "idle"
}

// PollerContext tracks how long a core has been spinning in one block.
type PollerContext struct {
	State PollState
	// consecutive entries that sampled the same value
	Spins int
	Last  uint32
	Block *Block
}

func (c *Cpu) resetPoll() {
	c.poll = PollerContext{}
}

// sample reads the polled location without memory hooks.
func (c *Cpu) sample(rec *PollRecord) uint32 {
	if rec.Kind != PollRegion {
		return 0
	}
	switch rec.Size {
	case 1:
		return uint32(c.bus.Read8(rec.Addr))
	case 2:
		return uint32(c.bus.Read16(rec.Addr))
	}
	return c.bus.Read32(rec.Addr)
}

// retarget recomputes a region poll's address from the live registers. A
// block shared by callers with different base registers gets a fresh record
// whenever the address moves, and the spin count starts over.
func (c *Cpu) retarget(b *Block) *PollRecord {
	rec := b.Poll
	if rec == nil || rec.Kind != PollRegion || rec.Load < 0 {
		return rec
	}
	addr, size, _ := c.loadAddr(&b.Ins[rec.Load])
	if addr == rec.Addr && size == rec.Size {
		return rec
	}
	moved := *rec
	moved.Addr, moved.Size = addr, size
	moved.Region, moved.Supported = 0, false
	if c.regions != nil {
		moved.Region = c.regions.Classify(addr)
		moved.Supported = c.regions.Actionable(moved.Region)
	}
	b.Poll = &moved
	if c.poll.Block == b {
		c.resetPoll()
	}
	return b.Poll
}

// pollEnter runs on every block entry. After PollLimit entries of the same
// block with the same sampled value the poll becomes active and Run returns.
// The scheduler is only told once Run knows no interrupt was taken.
func (c *Cpu) pollEnter(b *Block) {
	p := &c.poll
	if !c.config.PollDetect {
		if p.Block != nil {
			c.resetPoll()
		}
		return
	}
	rec := c.retarget(b)
	if !rec.Parks() {
		if p.Block != nil {
			c.resetPoll()
		}
		return
	}
	v := c.sample(rec)
	if p.Block != b {
		*p = PollerContext{Block: b, Last: v}
		return
	}
	if v != p.Last {
		p.State = NoPoll
		p.Spins = 0
		p.Last = v
		return
	}
	p.Spins++
	if p.State == NoPoll && p.Spins >= c.config.PollLimit {
		p.State = ActivePoll
		c.pollFired = true
	}
}

// startPolling hands an active poll to the scheduler. Called after the
// firing block has run, so its own writes land before the core parks.
func (c *Cpu) startPolling() {
	p := &c.poll
	if p.State != ActivePoll || p.Block == nil {
		return
	}
	c.stats.Polls++
	if c.sched != nil {
		c.sched.StartPolling(c.Core, p.Block.Poll)
	}
}
