package monitor

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"

	"github.com/lunixbochs/argjoy"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/cpu/sh2"
	"github.com/lunixbochs/sh2corn/go/mars"
	"github.com/lunixbochs/sh2corn/go/models"
)

// Context is what every monitor command runs against.
type Context struct {
	io.Writer
	M      *mars.Machine
	Config *models.Config
	Core   int

	diffs [mars.Cores]*models.StatusDiff
}

func NewContext(w io.Writer, m *mars.Machine) *Context {
	c := &Context{Writer: w, M: m, Config: m.Config}
	for i, core := range m.Cores {
		c.diffs[i] = &models.StatusDiff{Cpu: core}
		c.diffs[i].Changes(false)
	}
	return c
}

func (c *Context) Printf(format string, a ...interface{}) (n int, err error) {
	return fmt.Fprintf(c, format, a...)
}

func (c *Context) Cpu() *sh2.Cpu { return c.M.Cores[c.Core] }

type Command struct {
	Name string
	Desc string
	Run  interface{}
}

var Commands = make(map[string]*Command)

func cmd(c *Command) *Command {
	fn := reflect.ValueOf(c.Run)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("Command.Run must be a func: got (%T) %#v\n", c.Run, c.Run))
	}
	Commands[c.Name] = c
	return c
}

// stringCodec converts typed words into command arguments
func stringCodec(arg interface{}, vals []interface{}) error {
	if ctx, ok := vals[0].(*Context); ok {
		if v, ok := arg.(**Context); ok {
			*v = ctx
			return nil
		}
		return argjoy.NoMatch
	}
	s, ok := vals[0].(string)
	if !ok {
		return argjoy.NoMatch
	}
	switch v := arg.(type) {
	case *string:
		*v = s
	case *uint32:
		n, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return errors.Wrapf(err, "bad number %q", s)
		}
		*v = uint32(n)
	case *int:
		n, err := strconv.ParseInt(s, 0, 0)
		if err != nil {
			return errors.Wrapf(err, "bad number %q", s)
		}
		*v = int(n)
	default:
		return argjoy.NoMatch
	}
	return nil
}

var aj = argjoy.NewArgjoy()

func init() { aj.Register(stringCodec) }

// Run parses one monitor line and dispatches it.
func Run(c *Context, line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		c.Printf("parse error: %v\n", err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	command, ok := Commands[name]
	if !ok {
		c.Printf("command not found.\n")
		return nil
	}
	vals := []interface{}{c}
	for _, a := range args[1:] {
		vals = append(vals, a)
	}
	if want := reflect.TypeOf(command.Run).NumIn(); want != len(vals) {
		c.Printf("usage: %s takes %d argument(s)\n", name, want-1)
		return nil
	}
	out, err := aj.Call(command.Run, vals...)
	if err != nil {
		c.Printf("error: %v\n", err)
	} else if len(out) > 0 {
		if err, ok := out[0].(error); ok && err != nil {
			c.Printf("error: %v\n", err)
		}
	}
	return nil
}

func (c *Context) printDiff(onlyChanged bool) {
	cs := c.diffs[c.Core].Changes(onlyChanged)
	c.Printf("%s", cs.String(c.Config.Color))
}

var _ = cmd(&Command{
	Name: "help",
	Desc: "List commands.",
	Run: func(c *Context) error {
		names := make([]string, 0, len(Commands))
		for name := range Commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c.Printf("  %-8s %s\n", name, Commands[name].Desc)
		}
		return nil
	},
})

var _ = cmd(&Command{
	Name: "core",
	Desc: "Select the core other commands act on (0 primary, 1 secondary).",
	Run: func(c *Context, n int) error {
		if n < 0 || n >= mars.Cores {
			return errors.Errorf("no core %d", n)
		}
		c.Core = n
		c.Printf("%s\n", c.Cpu().Name())
		return nil
	},
})

var _ = cmd(&Command{
	Name: "regs",
	Desc: "Print all registers of the current core.",
	Run: func(c *Context) error {
		c.printDiff(false)
		return nil
	},
})

var _ = cmd(&Command{
	Name: "set",
	Desc: "Write a register: set <reg> <value>.",
	Run: func(c *Context, reg string, val uint32) error {
		cpu := c.Cpu()
		for enum, name := range cpu.RegNames() {
			if name == reg {
				return cpu.RegWrite(enum, val)
			}
		}
		return errors.Errorf("reg %s not found", reg)
	},
})

var _ = cmd(&Command{
	Name: "step",
	Desc: "Run only the current core for at least n cycles and show what changed.",
	Run: func(c *Context, n int) error {
		used := c.Cpu().Run(n)
		c.Printf("%d cycles\n", used)
		c.printDiff(true)
		return nil
	},
})

var _ = cmd(&Command{
	Name: "run",
	Desc: "Run both cores for n cycles.",
	Run: func(c *Context, n int) error {
		c.M.RunCycles(n)
		c.Printf("%s", c.M)
		c.printDiff(true)
		return nil
	},
})

var _ = cmd(&Command{
	Name: "mem",
	Desc: "Dump memory: mem <addr> <size>.",
	Run: func(c *Context, addr, size uint32) error {
		data, err := c.M.Bus.MemRead(sh2.Canonical(addr), size)
		if err != nil {
			return err
		}
		for _, line := range models.HexDump(addr, data) {
			c.Printf("  %s\n", line)
		}
		return nil
	},
})

var _ = cmd(&Command{
	Name: "maps",
	Desc: "Display memory mappings.",
	Run: func(c *Context) error {
		for _, m := range c.M.Bus.Mappings() {
			c.Printf("  %v\n", m)
		}
		return nil
	},
})

var _ = cmd(&Command{
	Name: "blocks",
	Desc: "List the current core's cached blocks by address.",
	Run: func(c *Context) error {
		var blocks []*sh2.Block
		c.Cpu().Cache().Each(func(b *sh2.Block) { blocks = append(blocks, b) })
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
		var regions mars.Regions
		for _, b := range blocks {
			poll := ""
			if b.Poll != nil && b.Poll.Kind != sh2.PollNone {
				poll = " " + b.Poll.String()
			}
			c.Printf("  %s [%s]%s\n", b, mars.RegionName(regions.Classify(b.Start)), poll)
		}
		return nil
	},
})

var _ = cmd(&Command{
	Name: "stats",
	Desc: "Print scheduler and cache statistics.",
	Run: func(c *Context) error {
		c.Printf("%s", c.M)
		for _, core := range c.M.Cores {
			c.Printf("%-9s cache %+v\n", core.Name(), core.Cache().Stats())
			if rec := c.M.Polling(core.Core); rec != nil {
				c.Printf("%-9s parked on %s\n", core.Name(), rec)
			}
		}
		return nil
	},
})

var _ = cmd(&Command{
	Name: "irq",
	Desc: "Raise an interrupt: irq <core> <level> <vector>.",
	Run: func(c *Context, core, level, vector int) error {
		return c.M.Intc.Raise(core, level, vector)
	},
})

var _ = cmd(&Command{
	Name: "dma",
	Desc: "Wake cores polling memory, as after a DMA transfer.",
	Run: func(c *Context) error {
		c.M.NotifyDMA()
		return nil
	},
})

var _ = cmd(&Command{
	Name: "save",
	Desc: "Write a savestate.",
	Run: func(c *Context, path string) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return c.M.Save(f)
	},
})

var _ = cmd(&Command{
	Name: "load",
	Desc: "Restore a savestate.",
	Run: func(c *Context, path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := c.M.Load(f); err != nil {
			return err
		}
		c.printDiff(true)
		return nil
	},
})
