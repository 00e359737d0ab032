package cpu

import (
	"fmt"
)

// Page is one region of the guest bus backed by host memory.
type Page struct {
	Addr uint32
	Size uint32
	Prot int
	Data []byte

	Desc string
}

func protString(prot int) string {
	s := []byte("---")
	for i, c := range "rwx" {
		if prot&(1<<uint(i)) != 0 {
			s[i] = byte(c)
		}
	}
	return string(s)
}

// End is one past the last byte, which may be 1<<32.
func (p *Page) End() uint64 {
	return uint64(p.Addr) + uint64(p.Size)
}

func (p *Page) String() string {
	s := fmt.Sprintf("0x%08x-0x%08x %s", p.Addr, p.End(), protString(p.Prot))
	if p.Desc != "" {
		s += " [" + p.Desc + "]"
	}
	return s
}

func (p *Page) Contains(addr uint32) bool {
	return addr >= p.Addr && uint64(addr) < p.End()
}

// Holds reports whether addr:addr+size lies entirely inside the page.
func (p *Page) Holds(addr uint32, size int) bool {
	return p.Contains(addr) && uint64(addr)+uint64(size) <= p.End()
}

func (p *Page) Overlaps(addr, size uint32) bool {
	return size > 0 && uint64(addr) < p.End() && uint64(addr)+uint64(size) > uint64(p.Addr)
}

// Pages is kept sorted by Addr and never overlaps.
type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

// index of the page containing addr, or -1
func (p Pages) bsearch(addr uint32) int {
	lo, hi := 0, len(p)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		pg := p[mid]
		switch {
		case addr < pg.Addr:
			hi = mid - 1
		case pg.Contains(addr):
			return mid
		default:
			lo = mid + 1
		}
	}
	return -1
}

func (p Pages) Find(addr uint32) *Page {
	if i := p.bsearch(addr); i >= 0 {
		return p[i]
	}
	return nil
}
