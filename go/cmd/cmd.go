package cmd

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sh2corn/go/mars"
	"github.com/lunixbochs/sh2corn/go/models"
)

type strslice []string

func (s *strslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *strslice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// MachineCmd is the shared flag handling and setup behind the subcommands.
// Subcommands hook in before and after the machine is built.
type MachineCmd struct {
	Config  *models.Config
	Machine *mars.Machine
	Flags   *flag.FlagSet

	SetupFlags   func() error
	SetupMachine func() error
	RunMachine   func() error
	Teardown     func()

	// cycles per core for the default run
	Cycles int
}

func NewMachineCmd() *MachineCmd {
	return &MachineCmd{Flags: flag.NewFlagSet("cli", flag.ExitOnError)}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints an error, and a stacktrace if available.
func (c *MachineCmd) PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	st, ok := err.(stackTracer)
	if !ok {
		return
	}
	var frames [][2]string
	width := 0
	for _, f := range st.StackTrace() {
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)
		if len(fileline) > width {
			width = len(fileline)
		}
		frames = append(frames, [2]string{fileline, method})
		if method == "main" {
			break
		}
	}
	for _, f := range frames {
		fmt.Fprintf(os.Stderr, "%-*s | %s()\n", width, f[0], f[1])
	}
}

// parse "addr:file" image arguments
func parseLoad(s string) (uint32, string, error) {
	split := strings.SplitN(s, ":", 2)
	if len(split) != 2 {
		return 0, "", errors.Errorf("bad image argument %q, want addr:file", s)
	}
	addr, err := strconv.ParseUint(split[0], 0, 32)
	if err != nil {
		return 0, "", errors.Wrapf(err, "bad load address %q", split[0])
	}
	return uint32(addr), split[1], nil
}

func (c *MachineCmd) load(addr uint32, path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading image")
	}
	return c.Machine.Bus.Load(addr, data)
}

func (c *MachineCmd) Run(argv []string) int {
	fs := c.Flags
	boot := fs.String("boot", "", "boot image, loaded at 0 (primary vectors at 0, secondary at 0x400)")
	rom := fs.String("rom", "", "cartridge image, loaded at 0x02000000")
	sdram := fs.String("sdram", "", "image loaded into SDRAM at 0x06000000")
	var loads strslice
	fs.Var(&loads, "load", "load an image at addr:file (repeatable)")
	fs.IntVar(&c.Cycles, "cycles", 1000000, "cycles to run each core for")

	threshold := fs.Uint("promote", models.DefaultPromoteThreshold, "block hits before tier 2 compilation, 2^k-1 (0 disables)")
	nopoll := fs.Bool("nopoll", false, "disable poll and busy-loop detection")
	pollLimit := fs.Int("polllimit", models.DefaultPollLimit, "stable poll iterations before a core is parked")
	maxBlock := fs.Int("maxblock", models.DefaultMaxBlockLen, "longest block in instructions")
	slice := fs.Int("slice", models.DefaultSlice, "cycles per core before switching")
	tasBypass := fs.Bool("tasbypass", false, "TAS.B goes through the cache-through mirror")
	looproll := fs.Int("loop", 0, "collapse block loops up to this length in traces")

	verbose := fs.Bool("v", false, "verbose output")
	nocolor := fs.Bool("nocolor", false, "disable colored output")
	outfile := fs.String("o", "", "redirect debugging output to file (default stderr)")
	loadstate := fs.String("loadstate", "", "restore a savestate before running")
	savepost := fs.String("savepost", "", "save state to file after running")

	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to <file>")
	memprofile := fs.String("memprofile", "", "write mem profile to <file>")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", argv[0])
		var flags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
		models.PrintFlags(os.Stderr, flags)
		fmt.Fprintf(os.Stderr, "\nExample:\n  %s -boot boot.bin -rom game.32x -cycles 5000000\n", argv[0])
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	fs.Parse(argv[1:])

	config := models.NewConfig()
	config.Verbose = *verbose
	config.PromoteThreshold = uint32(*threshold)
	config.PollDetect = !*nopoll
	config.PollLimit = *pollLimit
	config.MaxBlockLen = *maxBlock
	config.Slice = *slice
	config.TASBypass = *tasBypass
	config.LoopCollapse = *looproll
	config.SavePost = *savepost
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			c.PrintError(errors.Wrap(err, "opening output"))
			return 1
		}
		defer out.Close()
		config.Output = out
	} else {
		fd := os.Stderr.Fd()
		config.Color = !*nocolor && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
		config.Output = colorable.NewColorableStderr()
	}
	c.Config = config

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			c.PrintError(err)
			return 1
		}
		pprof.StartCPUProfile(f)
	}
	teardown := func() {
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
		}
		if *memprofile != "" {
			f, err := os.Create(*memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not write heap profile: %s\n", err)
			} else {
				pprof.WriteHeapProfile(f)
				f.Close()
			}
		}
		if c.Teardown != nil {
			c.Teardown()
		}
	}
	defer teardown()

	if err := c.setup(*boot, *rom, *sdram, loads, *loadstate); err != nil {
		c.PrintError(err)
		return 1
	}
	var err error
	if c.RunMachine != nil {
		err = c.RunMachine()
	} else {
		c.Machine.RunCycles(c.Cycles)
		config.Printf("%s", c.Machine)
	}
	if err != nil {
		c.PrintError(err)
		return 1
	}
	if config.SavePost != "" {
		if err := c.save(config.SavePost); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	return 0
}

func (c *MachineCmd) setup(boot, rom, sdram string, loads []string, state string) error {
	m, err := mars.NewMachine(nil, c.Config)
	if err != nil {
		return err
	}
	c.Machine = m
	images := []struct {
		addr uint32
		path string
	}{{mars.BootBase, boot}, {mars.RomBase, rom}, {mars.SdramBase, sdram}}
	for _, arg := range loads {
		addr, path, err := parseLoad(arg)
		if err != nil {
			return err
		}
		images = append(images, struct {
			addr uint32
			path string
		}{addr, path})
	}
	for _, img := range images {
		if img.path == "" {
			continue
		}
		if err := c.load(img.addr, img.path); err != nil {
			return err
		}
	}
	m.Reset()
	if state != "" {
		f, err := os.Open(state)
		if err != nil {
			return errors.Wrap(err, "opening savestate")
		}
		defer f.Close()
		if err := m.Load(f); err != nil {
			return err
		}
	}
	if c.SetupMachine != nil {
		return c.SetupMachine()
	}
	return nil
}

func (c *MachineCmd) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating savestate")
	}
	defer f.Close()
	return c.Machine.Save(f)
}
