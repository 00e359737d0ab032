package mars

import (
	"fmt"
	"io"

	"github.com/lunixbochs/sh2corn/go/cpu/sh2"
	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

type CoreStats struct {
	Cycles  uint64 // charged, run or skipped
	Skipped uint64 // charged while parked on a poll
	Parks   uint64
	Wakes   uint64
}

// Machine is two cores sharing a bus, cooperatively scheduled in slices on
// the calling goroutine.
type Machine struct {
	Config *models.Config
	Table  *sh2.Table
	Bus    *Bus
	Intc   *Intc
	Cores  [Cores]*sh2.Cpu

	polls [Cores]*sh2.PollRecord
	// cycles owed to each core; negative after a block overshoots its slice
	credit [Cores]int
	stats  [Cores]CoreStats
}

// NewMachine builds a machine. table may be shared with other machines and
// is built when nil.
func NewMachine(table *sh2.Table, config *models.Config) (*Machine, error) {
	if config == nil {
		config = models.NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = sh2.NewTable()
	}
	bus, err := NewBus(config)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		Config: config,
		Table:  table,
		Bus:    bus,
		Intc:   NewIntc(),
	}
	env := sh2.Env{Bus: bus, Intc: m.Intc, Sched: m, Regions: Regions{}}
	for i := range m.Cores {
		c, err := sh2.New(i, table, env, config)
		if err != nil {
			return nil, err
		}
		m.Cores[i] = c
		bus.Watch(c.Cache().Invalidate)
	}
	bus.Watch(m.watch)
	m.Intc.raised = m.interrupted
	return m, nil
}

// Reset starts both cores from their power-on vectors.
func (m *Machine) Reset() {
	m.Intc.Reset()
	for i, c := range m.Cores {
		m.polls[i] = nil
		m.credit[i] = 0
		vbr := uint32(BootBase)
		if i == 1 {
			vbr = SecondaryBoot
		}
		c.Reset(vbr)
	}
}

// StartPolling parks core until something can change what it is waiting on.
func (m *Machine) StartPolling(core int, rec *sh2.PollRecord) {
	m.polls[core] = rec
	m.stats[core].Parks++
	m.Config.Debugf("%s: parked on %s\n", m.Cores[core].Name(), rec)
}

func (m *Machine) wake(core int) {
	m.polls[core] = nil
	m.stats[core].Wakes++
	m.Cores[core].Wake()
}

// watch wakes cores polling memory that overlaps a write.
func (m *Machine) watch(addr, size uint32) {
	for i, rec := range m.polls {
		if rec == nil || rec.Kind != sh2.PollRegion {
			continue
		}
		start := uint64(sh2.Canonical(rec.Addr))
		a := uint64(addr)
		if a < start+uint64(rec.Size) && start < a+uint64(size) {
			m.wake(i)
		}
	}
}

// NotifyDMA wakes every core polling memory, for transfers that bypass the
// bus write path.
func (m *Machine) NotifyDMA() {
	for i, rec := range m.polls {
		if rec != nil && rec.Kind == sh2.PollRegion {
			m.wake(i)
		}
	}
}

// busy loops only end on an interrupt
func (m *Machine) interrupted(core int) {
	if m.polls[core] != nil {
		m.wake(core)
	}
}

// RunCycles advances both cores by n cycles each, alternating in slices.
func (m *Machine) RunCycles(n int) {
	for n > 0 {
		slice := m.Config.Slice
		if slice > n {
			slice = n
		}
		for i := range m.Cores {
			m.runCore(i, slice)
		}
		n -= slice
	}
}

func (m *Machine) runCore(i, slice int) {
	c := m.Cores[i]
	st := &m.stats[i]
	m.credit[i] += slice
	for m.credit[i] > 0 {
		if m.polls[i] != nil {
			skip := uint64(m.credit[i])
			st.Skipped += skip
			st.Cycles += skip
			c.Consumed += skip
			m.credit[i] = 0
			return
		}
		used := c.Run(m.credit[i])
		m.credit[i] -= used
		st.Cycles += uint64(used)
	}
}

func (m *Machine) Stats(core int) CoreStats { return m.stats[core] }

// Polling returns the record core is parked on, or nil.
func (m *Machine) Polling(core int) *sh2.PollRecord { return m.polls[core] }

func (m *Machine) cpus() []cpu.Cpu {
	return []cpu.Cpu{m.Cores[0], m.Cores[1]}
}

func (m *Machine) Save(w io.Writer) error {
	return models.SaveMachine(w, m.cpus(), m.Bus.Mem)
}

// Load restores a Save. Caches, pollers and parked cores are all dropped.
func (m *Machine) Load(r io.Reader) error {
	if err := models.LoadMachine(r, m.cpus(), m.Bus.Mem); err != nil {
		return err
	}
	for i := range m.Cores {
		m.polls[i] = nil
		m.credit[i] = 0
	}
	return nil
}

func (m *Machine) String() string {
	s := ""
	for i, c := range m.Cores {
		st := m.stats[i]
		cs := c.Stats()
		s += fmt.Sprintf("%-9s pc=%#08x cycles=%d skipped=%d blocks=%d compiled=%d promoted=%d irq=%d exc=%d parks=%d wakes=%d\n",
			c.Name(), c.PC, st.Cycles, st.Skipped, cs.Blocks, cs.Compiled, cs.Promoted, cs.Interrupts, cs.Exceptions, st.Parks, st.Wakes)
	}
	return s
}
