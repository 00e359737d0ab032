package sh2

// Bus is the memory system seen by a core. Accesses are big-endian and
// never fail; unmapped reads return open bus values decided by the machine.
// Writes must have invalidated any overlapping cached code before they
// return.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
	Fetch(pc uint32) uint16
}

// Intc is the interrupt controller. Level is the highest pending level for
// core (0 = none) and Vector is its vector number.
type Intc interface {
	Level(core int) int
	Vector(core int) int
	Ack(core int)
}

// Scheduler is told when a core settles into a poll or busy loop. The core
// returns from Run right after StartPolling and expects Wake before it is
// run again.
type Scheduler interface {
	StartPolling(core int, rec *PollRecord)
}

// RegionKind names a hardware region. The zero value is "unknown"; machines
// define their own kinds.
type RegionKind int

const RegionUnknown RegionKind = 0

type RegionClassifier interface {
	Classify(addr uint32) RegionKind
	// Actionable reports whether a write to this region can end a poll, so
	// the scheduler may park a core polling it.
	Actionable(kind RegionKind) bool
}

// Env bundles a core's collaborators. Only Bus is required.
type Env struct {
	Bus     Bus
	Intc    Intc
	Sched   Scheduler
	Regions RegionClassifier
}
