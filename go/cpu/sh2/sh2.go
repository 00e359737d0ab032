package sh2

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

type Stats struct {
	Blocks     uint64 // block entries
	Compiled   uint64 // entries that ran a tier-2 closure
	Promoted   uint64
	Interrupts uint64
	Exceptions uint64
	Polls      uint64 // hand-offs to the scheduler
	Sleeps     uint64
}

// Cpu is one SH-2 core. Both cores of a machine share a Table and a Bus but
// own everything else.
type Cpu struct {
	State
	*cpu.Hooks

	Core int

	config  *models.Config
	table   *Table
	bus     Bus
	intc    Intc
	sched   Scheduler
	regions RegionClassifier

	cache     *Cache
	templates map[templateKey]*pollTemplate
	poll      PollerContext
	// block that ran last, for the successor link
	prev *Block
	// set by the poll bridge to end Run
	pollFired bool
	// cycles above the static block cost, added by tier-2 steps
	extra int

	stats Stats
}

var _ cpu.Cpu = &Cpu{}

func New(core int, table *Table, env Env, config *models.Config) (*Cpu, error) {
	if table == nil {
		return nil, errors.New("sh2: nil instruction table")
	}
	if env.Bus == nil {
		return nil, errors.New("sh2: nil bus")
	}
	if config == nil {
		config = models.NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Cpu{
		Core:      core,
		config:    config,
		table:     table,
		bus:       env.Bus,
		intc:      env.Intc,
		sched:     env.Sched,
		regions:   env.Regions,
		templates: make(map[templateKey]*pollTemplate),
	}
	c.cache = NewCache(config.MaxBlockLen)
	c.Hooks = cpu.NewHooks(c)
	c.State.Reset(0, 0)
	return c, nil
}

func (c *Cpu) Name() string {
	if c.Core == 0 {
		return "primary"
	}
	return "secondary"
}

func (c *Cpu) Config() *models.Config { return c.config }
func (c *Cpu) Cache() *Cache           { return c.cache }
func (c *Cpu) Table() *Table           { return c.table }
func (c *Cpu) Stats() Stats            { return c.stats }
func (c *Cpu) Poller() PollerContext   { return c.poll }

// Reset loads PC and SP from the power-on vectors at vbr and drops all
// derived state.
func (c *Cpu) Reset(vbr uint32) {
	pc := c.bus.Read32(vbr + VEC_POWER_PC*4)
	sp := c.bus.Read32(vbr + VEC_POWER_SP*4)
	c.State.Reset(pc, sp)
	c.VBR = vbr
	c.flush()
}

// flush forgets everything derived from memory or from the previous state
func (c *Cpu) flush() {
	c.cache.Reset()
	c.resetPoll()
	c.prev = nil
	c.pollFired = false
}

// Run executes whole blocks until budget cycles are used, an interrupt is
// accepted, or the core starts polling. It returns the cycles consumed,
// which may overshoot budget by the tail of the last block.
func (c *Cpu) Run(budget int) int {
	c.Cycles = int32(budget)
	c.pollFired = false
	if c.Sleeping {
		if !c.interrupt() {
			c.Cycles = 0
		}
		return c.account(budget)
	}
	for c.Cycles > 0 {
		b := c.next()
		c.pollEnter(b)
		c.Cycles -= int32(c.runBlock(b))
		if c.Sleeping {
			c.stats.Sleeps++
			if !c.interrupt() {
				c.Cycles = 0
			}
			break
		}
		if c.interrupt() {
			break
		}
		if c.pollFired {
			c.startPolling()
			break
		}
	}
	return c.account(budget)
}

func (c *Cpu) account(budget int) int {
	used := budget - int(c.Cycles)
	c.Consumed += uint64(used)
	c.Cycles = 0
	return used
}

// next finds the block at PC, following the previous block's successor link
// when it is still good.
func (c *Cpu) next() *Block {
	pc := c.PC
	if pc&1 != 0 {
		c.fault("odd pc %#08x", pc)
		pc &^= 1
		c.PC = pc
	}
	if p := c.prev; p != nil {
		if n := p.next; n != nil && n.Valid && n.Start == pc {
			c.prev = n
			return n
		}
	}
	b := c.block(pc)
	if c.prev != nil && c.prev.Valid {
		c.prev.next = b
	}
	c.prev = b
	return b
}

func (c *Cpu) runBlock(b *Block) int {
	if !b.Valid {
		panic(fmt.Sprintf("sh2 %s: executing invalidated block at %#08x", c.Name(), b.Start))
	}
	c.stats.Blocks++
	b.Hits++
	c.promote(b)
	if !c.Hooks.Empty() {
		c.OnBlock(b.Start, b.End+2-b.Start)
	}
	if b.compiled != nil {
		c.stats.Compiled++
		return b.compiled(c)
	}
	return c.interpret(b)
}

// interpret walks a block one instruction at a time.
func (c *Cpu) interpret(b *Block) int {
	c.PC = b.End + 2
	cycles := 0
	ins := b.Ins
	for i := 0; i < len(ins); i++ {
		in := &ins[i]
		cycles += c.exec(in)
		if c.InDelay {
			i++
			if i < len(ins) {
				cycles += c.execSlot(&ins[i], in.PC)
			}
			c.endDelay()
		}
	}
	return cycles
}

func (c *Cpu) endDelay() {
	if c.InDelay {
		c.PC = c.DelayPC
		c.InDelay = false
	}
}

// interrupt accepts a pending interrupt above the current mask. Only called
// between blocks.
func (c *Cpu) interrupt() bool {
	if c.intc == nil {
		return false
	}
	level := c.intc.Level(c.Core)
	if level == 0 || level <= c.IMask() && level < 16 {
		return false
	}
	vector := c.intc.Vector(c.Core)
	c.Sleeping = false
	c.raise(vector, c.PC)
	if level > 15 {
		// NMI
		level = 15
	}
	c.SetIMask(level)
	c.intc.Ack(c.Core)
	c.Cycles -= intCycles
	c.stats.Interrupts++
	c.resetPoll()
	return true
}

// Wake is called by the scheduler when a polling core has a reason to look
// at memory again.
func (c *Cpu) Wake() {
	c.resetPoll()
}

func (c *Cpu) fault(format string, a ...interface{}) {
	msg := fmt.Sprintf("sh2 %s: "+format, append([]interface{}{c.Name()}, a...)...)
	c.config.Errorf("%s\n", msg)
	if debugChecks {
		panic(msg)
	}
}

func (c *Cpu) RegNames() map[int]string {
	return regNames
}

func (c *Cpu) RegRead(reg int) (uint32, error) {
	switch {
	case reg >= R0 && reg <= R15:
		return c.R[reg], nil
	case reg == SR:
		return c.SR, nil
	case reg == GBR:
		return c.GBR, nil
	case reg == VBR:
		return c.VBR, nil
	case reg == MACH:
		return c.MACH, nil
	case reg == MACL:
		return c.MACL, nil
	case reg == PR:
		return c.PR, nil
	case reg == PC:
		return c.PC, nil
	}
	return 0, errors.Errorf("sh2: unknown register %d", reg)
}

func (c *Cpu) RegWrite(reg int, val uint32) error {
	switch {
	case reg >= R0 && reg <= R15:
		c.R[reg] = val
	case reg == SR:
		c.SR = val & SR_MASK
	case reg == GBR:
		c.GBR = val
	case reg == VBR:
		c.VBR = val
	case reg == MACH:
		c.MACH = val
	case reg == MACL:
		c.MACL = val
	case reg == PR:
		c.PR = val
	case reg == PC:
		c.PC = val
		c.InDelay = false
		c.Sleeping = false
		c.prev = nil
	default:
		return errors.Errorf("sh2: unknown register %d", reg)
	}
	return nil
}

func (c *Cpu) ContextSave(w io.Writer) error {
	return c.State.Pack(w)
}

// ContextRestore replaces the architectural state. Cached blocks and the
// poll bridge are dropped since memory may have changed with it.
func (c *Cpu) ContextRestore(r io.Reader) error {
	if err := c.State.Unpack(r); err != nil {
		return err
	}
	c.flush()
	return nil
}
