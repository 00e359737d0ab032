package cpu

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

type MemError struct {
	Addr uint32
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim keeps a sorted list of non-overlapping pages.
// Mappings are static for the lifetime of a machine, so there is no unmap.
type MemSim struct {
	Mem Pages
}

// Map adds a zeroed page at addr:addr+size. Overlapping an existing page is an error.
func (m *MemSim) Map(addr, size uint32, prot int, desc string) (*Page, error) {
	if size == 0 {
		return nil, errors.New("zero-sized mapping")
	}
	if uint64(addr)+uint64(size) > 1<<32 {
		return nil, errors.Errorf("mapping %#x+%#x outside address space", addr, size)
	}
	for _, mm := range m.Mem {
		if mm.Overlaps(addr, size) {
			return nil, errors.Errorf("mapping %#x+%#x overlaps %s", addr, size, mm)
		}
	}
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size), Desc: desc}
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
	return page, nil
}

// Checks whether the address range exists in the currently-mapped memory.
// If prot > 0, ensures that each region has the entire protection mask provided.
func (m *MemSim) RangeValid(addr, size uint32, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	pos := uint64(addr)
	end := uint64(addr) + uint64(size)
	for _, mm := range m.Mem[first:] {
		if pos >= end || !mm.Contains(uint32(pos)) {
			break
		}
		if prot > 0 && mm.Prot&prot != prot {
			protGood = false
		}
		pos = uint64(mm.Addr) + uint64(mm.Size)
	}
	return pos >= end, protGood
}

func (m *MemSim) Read(addr uint32, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint32(len(p)), prot); !gmap {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_UNMAPPED}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_UNMAPPED}
	} else if !gprot {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_PROT}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_PROT}
	}
	i := m.Mem.bsearch(addr)
	for _, mm := range m.Mem[i:] {
		if len(p) == 0 || !mm.Contains(addr) {
			break
		}
		n := copy(p, mm.Data[addr-mm.Addr:])
		addr, p = addr+uint32(n), p[n:]
	}
	return nil
}

func (m *MemSim) Write(addr uint32, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint32(len(p)), prot); !gmap {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_PROT}
	}
	i := m.Mem.bsearch(addr)
	for _, mm := range m.Mem[i:] {
		if len(p) == 0 || !mm.Contains(addr) {
			break
		}
		n := copy(mm.Data[addr-mm.Addr:], p)
		addr, p = addr+uint32(n), p[n:]
	}
	return nil
}
