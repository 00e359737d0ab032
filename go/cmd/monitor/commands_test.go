package monitor

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/lunixbochs/sh2corn/go/mars"
	"github.com/lunixbochs/sh2corn/go/models"
)

func newContext(t *testing.T) (*Context, *bytes.Buffer) {
	config := models.NewConfig()
	config.Output = io.Discard
	m, err := mars.NewMachine(nil, config)
	if err != nil {
		t.Fatal(err)
	}
	m.Bus.Write32(mars.BootBase, mars.SdramBase)
	m.Bus.Write32(mars.BootBase+4, mars.SdramBase+0x1000)
	// mov #5,r1; bra self; nop
	m.Bus.Write16(mars.SdramBase, 0xe105)
	m.Bus.Write16(mars.SdramBase+2, 0xaffe)
	m.Bus.Write16(mars.SdramBase+4, 0x0009)
	m.Reset()
	var out bytes.Buffer
	return NewContext(&out, m), &out
}

func TestMonitorCommands(t *testing.T) {
	c, out := newContext(t)
	table := []struct {
		line, want string
	}{
		{"set r3 0x1234", ""},
		{"regs", "00001234"},
		{"step 8", "+    r1 00000005"},
		{"mem 0x06000000 6", "06000000: e105affe 0009"},
		{"blocks", "[sdram]"},
		{"core 1", "secondary"},
		{"core 7", "no core 7"},
		{"irq 0 20 64", "bad interrupt level"},
		{"set r3", "takes 2 argument(s)"},
		{"set r99 1", "not found"},
		{"bogus", "command not found"},
		{"mem 'unterminated", "parse error"},
	}
	for _, v := range table {
		out.Reset()
		Run(c, v.line)
		if v.want == "" {
			if out.Len() != 0 {
				t.Errorf("%q printed %q", v.line, out.String())
			}
		} else if !strings.Contains(out.String(), v.want) {
			t.Errorf("%q: want %q in\n%s", v.line, v.want, out.String())
		}
	}
}

func TestMonitorHelp(t *testing.T) {
	c, out := newContext(t)
	Run(c, "help")
	for name := range Commands {
		if !strings.Contains(out.String(), name) {
			t.Errorf("help is missing %s", name)
		}
	}
}
