package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// WriteWatcher is told about every successful write, after the bytes land
// and before the write returns.
type WriteWatcher func(addr, size uint32)

// Mem wraps MemSim with sized accesses and write notification.
type Mem struct {
	sim   *MemSim
	order binary.ByteOrder
	// most recently hit page, checked before the binary search
	last *Page

	watchers []WriteWatcher
}

func NewMem(order binary.ByteOrder) *Mem {
	return &Mem{sim: &MemSim{}, order: order}
}

func (m *Mem) ByteOrder() binary.ByteOrder {
	return m.order
}

func (m *Mem) MemMapProt(addr, size uint32, prot int, desc string) (*Page, error) {
	return m.sim.Map(addr, size, prot, desc)
}

func (m *Mem) Mappings() Pages {
	return m.sim.Mem
}

func (m *Mem) Watch(fn WriteWatcher) {
	m.watchers = append(m.watchers, fn)
}

func (m *Mem) notify(addr, size uint32) {
	for _, fn := range m.watchers {
		fn(addr, size)
	}
}

func (m *Mem) MemReadInto(p []byte, addr uint32) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint32) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

// MemWrite ignores protections, so it can load ROM images.
func (m *Mem) MemWrite(addr uint32, p []byte) error {
	if err := m.sim.Write(addr, p, 0); err != nil {
		return err
	}
	m.notify(addr, uint32(len(p)))
	return nil
}

// find the page holding all of addr:addr+size, or nil if it spans pages
func (m *Mem) find(addr uint32, size int) *Page {
	if pg := m.last; pg != nil && pg.Holds(addr, size) {
		return pg
	}
	pg := m.sim.Mem.Find(addr)
	if pg == nil {
		return nil
	}
	m.last = pg
	if !pg.Holds(addr, size) {
		return nil
	}
	return pg
}

func (m *Mem) getUint(p []byte) uint32 {
	switch len(p) {
	case 4:
		return m.order.Uint32(p)
	case 2:
		return uint32(m.order.Uint16(p))
	default:
		return uint32(p[0])
	}
}

func (m *Mem) putUint(p []byte, val uint32) {
	switch len(p) {
	case 4:
		m.order.PutUint32(p, val)
	case 2:
		m.order.PutUint16(p, uint16(val))
	default:
		p[0] = byte(val)
	}
}

func checkSize(size int) error {
	if size != 1 && size != 2 && size != 4 {
		return errors.Errorf("unsupported access size: %d", size)
	}
	return nil
}

func (m *Mem) ReadUint(addr uint32, size, prot int) (uint32, error) {
	if err := checkSize(size); err != nil {
		return 0, err
	}
	if pg := m.find(addr, size); pg != nil && pg.Prot&prot == prot {
		off := addr - pg.Addr
		return m.getUint(pg.Data[off : off+uint32(size)]), nil
	}
	var buf [4]byte
	if err := m.sim.Read(addr, buf[:size], prot); err != nil {
		return 0, err
	}
	return m.getUint(buf[:size]), nil
}

func (m *Mem) WriteUint(addr uint32, size, prot int, val uint32) error {
	if err := checkSize(size); err != nil {
		return err
	}
	if pg := m.find(addr, size); pg != nil && pg.Prot&prot == prot {
		off := addr - pg.Addr
		m.putUint(pg.Data[off:off+uint32(size)], val)
	} else {
		var buf [4]byte
		m.putUint(buf[:size], val)
		if err := m.sim.Write(addr, buf[:size], prot); err != nil {
			return err
		}
	}
	m.notify(addr, uint32(size))
	return nil
}
