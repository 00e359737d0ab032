package models

import (
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

// regCpu is a register file and nothing else
type regCpu struct {
	regs  map[int]uint32
	names map[int]string
}

func newRegCpu() *regCpu {
	c := &regCpu{regs: make(map[int]uint32), names: make(map[int]string)}
	for _, name := range []string{"r0", "r1", "r2", "r10", "r11", "pc", "sr"} {
		c.names[len(c.names)] = name
	}
	return c
}

func (c *regCpu) RegNames() map[int]string { return c.names }
func (c *regCpu) RegRead(reg int) (uint32, error) {
	if _, ok := c.names[reg]; !ok {
		return 0, errors.Errorf("no reg %d", reg)
	}
	return c.regs[reg], nil
}
func (c *regCpu) RegWrite(reg int, val uint32) error { c.regs[reg] = val; return nil }
func (c *regCpu) Run(cycles int) int                 { return cycles }
func (c *regCpu) HookAdd(int, interface{}, uint32, uint32) (cpu.Hook, error) {
	return nil, errors.New("no hooks")
}
func (c *regCpu) HookDel(cpu.Hook) error          { return errors.New("no hooks") }
func (c *regCpu) ContextSave(w io.Writer) error    { return nil }
func (c *regCpu) ContextRestore(r io.Reader) error { return nil }

func TestSortedRegs(t *testing.T) {
	var names []string
	for _, r := range SortedRegs(newRegCpu()) {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, " "); got != "pc r0 r1 r2 r10 r11 sr" {
		t.Errorf("order %q", got)
	}
}

func TestStatusDiff(t *testing.T) {
	c := newRegCpu()
	s := StatusDiff{Cpu: c}
	if all := s.Changes(false); len(all) != len(c.names) {
		t.Fatalf("%d registers listed", len(all))
	}
	c.RegWrite(3, 0x06001234) // r10
	changed := s.Changes(true)
	if len(changed) != 1 || changed[0].Name != "r10" || changed[0].New != 0x06001234 {
		t.Fatalf("changes %+v", changed)
	}
	if out := changed.String(false); !strings.Contains(out, "+   r10 06001234") {
		t.Errorf("plain output %q", out)
	}
	if s.Changes(true).Count() != 0 {
		t.Error("second diff still sees the change")
	}

	ch := &Change{Old: 0x06000000, New: 0x06001234, Name: "r10"}
	masks := ch.mask()
	if len(masks) != 2 || masks[0].Text != "0600" || masks[0].Changed || masks[1].Text != "1234" || !masks[1].Changed {
		t.Errorf("masks %+v", masks)
	}
}

func TestHexDump(t *testing.T) {
	mem := []byte("SEGA 32X SH-2 engine")
	lines := HexDump(0x02000000, mem)
	if len(lines) != 2 {
		t.Fatalf("%d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "02000000: 53454741 20333258") {
		t.Errorf("line 0 %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "02000010: 67696e65") || !strings.Contains(lines[1], "[gine") {
		t.Errorf("line 1 %q", lines[1])
	}
}
