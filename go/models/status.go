package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/mgutz/ansi"

	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

func colorPad(s, color string, pad int) string {
	length := len(s)
	s = color + s + ansi.Reset
	if length < pad {
		s = strings.Repeat(" ", pad-length) + s
	}
	return s
}

type Reg struct {
	Enum int
	Name string
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// SortedRegs lists a core's registers in natural name order (r2 before r10).
func SortedRegs(c cpu.Cpu) []Reg {
	names := c.RegNames()
	regs := make(regList, 0, len(names))
	for enum, name := range names {
		regs = append(regs, Reg{enum, name})
	}
	sort.Sort(regs)
	return regs
}

// digit runs that differ between two hex strings
type changeMask struct {
	Text    string
	Changed bool
}

type Change struct {
	Old, New uint32
	Enum     int
	Name     string
}

func (c *Change) Changed() bool {
	return c.Old != c.New
}

func (c *Change) mask() []changeMask {
	s1, s2 := fmt.Sprintf("%08x", c.New), fmt.Sprintf("%08x", c.Old)
	var masks []changeMask
	pos := 0
	for i := 1; i <= len(s1); i++ {
		if i == len(s1) || (s1[i] == s2[i]) != (s1[pos] == s2[pos]) {
			masks = append(masks, changeMask{s1[pos:i], s1[pos] != s2[pos]})
			pos = i
		}
	}
	return masks
}

func (c *Change) String(color bool) string {
	if !c.Changed() {
		return fmt.Sprintf("  %5s %08x", c.Name, c.New)
	}
	if !color {
		return fmt.Sprintf("+ %5s %08x", c.Name, c.New)
	}
	out := []string{"  ", colorPad(c.Name, chNew, 5), " "}
	for _, m := range c.mask() {
		col := chSame
		if m.Changed {
			col = chNew
		}
		out = append(out, col+m.Text)
	}
	out = append(out, ansi.Reset)
	return strings.Join(out, "")
}

type Changes []*Change

// String lays the registers out in four columns, filled top to bottom.
func (cs Changes) String(color bool) string {
	const cols = 4
	rows := (len(cs) + cols - 1) / cols
	var out []string
	for r := 0; r < rows; r++ {
		var line []string
		for col := 0; col < cols; col++ {
			if i := col*rows + r; i < len(cs) {
				line = append(line, cs[i].String(color))
			}
		}
		out = append(out, strings.Join(line, " ")+"\n")
	}
	return strings.Join(out, "")
}

func (cs Changes) Count() int {
	n := 0
	for _, c := range cs {
		if c.Changed() {
			n++
		}
	}
	return n
}

func (cs Changes) Find(enum int) *Change {
	for _, c := range cs {
		if c.Enum == enum {
			return c
		}
	}
	return nil
}

// StatusDiff tracks a core's registers between calls to Changes.
type StatusDiff struct {
	Cpu  cpu.Cpu
	prev map[int]uint32
}

// Changes reads every register and compares against the previous call. With
// onlyChanged set, unchanged registers are left out.
func (s *StatusDiff) Changes(onlyChanged bool) Changes {
	regs := SortedRegs(s.Cpu)
	cs := make(Changes, 0, len(regs))
	cur := make(map[int]uint32, len(regs))
	for _, r := range regs {
		val, err := s.Cpu.RegRead(r.Enum)
		if err != nil {
			continue
		}
		cur[r.Enum] = val
		c := &Change{Old: s.prev[r.Enum], New: val, Enum: r.Enum, Name: r.Name}
		if !onlyChanged || c.Changed() {
			cs = append(cs, c)
		}
	}
	s.prev = cur
	return cs
}
