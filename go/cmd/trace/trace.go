package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/cmd"
	"github.com/lunixbochs/sh2corn/go/models"
	"github.com/lunixbochs/sh2corn/go/models/cpu"
)

// entry is one block entry. Size is part of the key, so a block rebuilt to a
// different length breaks a folded loop.
type entry struct{ addr, size uint32 }

// Tracer prints one line per block entry, per core, folding repeated loops
// into a single summary line.
type Tracer struct {
	out   io.Writer
	names []string
	loops []*models.LoopDetect[entry]
	// inside a folded loop, per core
	folded []bool
}

func NewTracer(out io.Writer, names []string, loopLen int) *Tracer {
	t := &Tracer{out: out, names: names, folded: make([]bool, len(names))}
	if loopLen > 0 {
		t.loops = make([]*models.LoopDetect[entry], len(names))
		for i := range t.loops {
			t.loops[i] = models.NewLoopDetect[entry](loopLen)
		}
	}
	return t
}

func fmtLoop(body []entry) string {
	s := make([]string, len(body))
	for i, e := range body {
		s[i] = fmt.Sprintf("%#08x", e.addr)
	}
	return strings.Join(s, " ")
}

func (t *Tracer) Block(core int, addr, size uint32) {
	if t.loops != nil {
		looped, body, count := t.loops[core].Update(entry{addr, size})
		if looped {
			t.folded[core] = true
			return
		}
		if t.folded[core] {
			t.folded[core] = false
			fmt.Fprintf(t.out, "%-9s loop x%d [%s]\n", t.names[core], count, fmtLoop(body))
		}
	}
	fmt.Fprintf(t.out, "%-9s %#08x +%d\n", t.names[core], addr, size)
}

func (t *Tracer) Intr(core int, vector uint32) {
	fmt.Fprintf(t.out, "%-9s exception vector %d\n", t.names[core], vector)
}

// Flush prints loops still open when tracing stops.
func (t *Tracer) Flush() {
	for core, folded := range t.folded {
		if folded {
			body, count := t.loops[core].Looping()
			fmt.Fprintf(t.out, "%-9s loop x%d [%s] (running)\n", t.names[core], count, fmtLoop(body))
			t.folded[core] = false
		}
	}
}

// decode prints a compressed trace file
func decode(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening trace")
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, snappy.NewReader(f))
	return errors.Wrap(err, "decoding trace")
}

func Main(args []string) {
	c := cmd.NewMachineCmd()
	var to *string
	c.SetupFlags = func() error {
		to = c.Flags.String("to", "", "write the trace snappy-compressed to <file>")
		// handled before the flags are parsed, listed for -h
		c.Flags.String("decode", "", "print a compressed trace file and exit")
		return nil
	}
	var sink *snappy.Writer
	var file *os.File
	var buf *bufio.Writer
	var tracer *Tracer
	c.SetupMachine = func() error {
		var out io.Writer = c.Config.Output
		if *to != "" {
			var err error
			if file, err = os.Create(*to); err != nil {
				return errors.Wrap(err, "creating trace file")
			}
			sink = snappy.NewBufferedWriter(file)
			out = sink
		} else {
			buf = bufio.NewWriter(out)
			out = buf
		}
		m := c.Machine
		names := make([]string, len(m.Cores))
		for i, core := range m.Cores {
			names[i] = core.Name()
		}
		tracer = NewTracer(out, names, c.Config.LoopCollapse)
		for i, core := range m.Cores {
			i := i
			if _, err := core.HookAdd(cpu.HOOK_BLOCK, func(_ cpu.Cpu, addr, size uint32) {
				tracer.Block(i, addr, size)
			}, 1, 0); err != nil {
				return err
			}
			if _, err := core.HookAdd(cpu.HOOK_INTR, func(_ cpu.Cpu, vector uint32) {
				tracer.Intr(i, vector)
			}, 1, 0); err != nil {
				return err
			}
		}
		return nil
	}
	c.Teardown = func() {
		if tracer != nil {
			tracer.Flush()
		}
		if buf != nil {
			buf.Flush()
		}
		if sink != nil {
			sink.Close()
			file.Close()
		}
	}
	c.RunMachine = func() error {
		c.Machine.RunCycles(c.Cycles)
		return nil
	}
	// -decode skips the machine entirely
	for i, arg := range args {
		if (arg == "-decode" || arg == "--decode") && i+1 < len(args) {
			if err := decode(args[i+1]); err != nil {
				c.PrintError(err)
				os.Exit(1)
			}
			os.Exit(0)
		}
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("trace", "print every block entry on both cores", Main) }
