package mars

import (
	"github.com/pkg/errors"
)

const (
	Cores    = 2
	NMILevel = 16
)

// Intc holds each core's pending interrupt requests, one vector per level.
// Requests stay pending until the core takes them.
type Intc struct {
	pending [Cores][NMILevel + 1]int
	// raised is called after a request is added, so the machine can wake
	// a parked core
	raised func(core int)
}

func NewIntc() *Intc {
	i := &Intc{}
	for core := range i.pending {
		i.clearAll(core)
	}
	return i
}

func (i *Intc) clearAll(core int) {
	for l := range i.pending[core] {
		i.pending[core][l] = -1
	}
}

func (i *Intc) Raise(core, level, vector int) error {
	if core < 0 || core >= Cores {
		return errors.Errorf("no core %d", core)
	}
	if level < 1 || level > NMILevel {
		return errors.Errorf("bad interrupt level %d", level)
	}
	if vector < 0 || vector > 0xff {
		return errors.Errorf("bad interrupt vector %d", vector)
	}
	i.pending[core][level] = vector
	if i.raised != nil {
		i.raised(core)
	}
	return nil
}

func (i *Intc) Clear(core, level int) {
	if core >= 0 && core < Cores && level > 0 && level <= NMILevel {
		i.pending[core][level] = -1
	}
}

// Level is the highest pending level for core, 0 if none.
func (i *Intc) Level(core int) int {
	for l := NMILevel; l > 0; l-- {
		if i.pending[core][l] >= 0 {
			return l
		}
	}
	return 0
}

func (i *Intc) Vector(core int) int {
	if l := i.Level(core); l > 0 {
		return i.pending[core][l]
	}
	return 0
}

func (i *Intc) Ack(core int) {
	if l := i.Level(core); l > 0 {
		i.pending[core][l] = -1
	}
}

func (i *Intc) Reset() {
	for core := range i.pending {
		i.clearAll(core)
	}
}
