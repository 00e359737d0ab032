package monitor

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/shibukawa/configdir"

	cmdpkg "github.com/lunixbochs/sh2corn/go/cmd"
)

func historyPath() string {
	dirs := configdir.New("sh2corn", "monitor")
	cache := dirs.QueryCacheFolder()
	if err := cache.MkdirAll(); err != nil {
		return ""
	}
	return filepath.Join(cache.Path, "history")
}

// Repl reads monitor commands until EOF.
func Repl(c *Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "\n",
		HistoryFile:     historyPath(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	c.Writer = rl.Stdout()
	// keep engine warnings from tearing the prompt
	c.Config.Output = rl.Stderr()
	for {
		rl.SetPrompt(fmt.Sprintf("%s %#08x> ", c.Cpu().Name(), c.Cpu().PC))
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		Run(c, line)
	}
}

func Main(args []string) {
	c := cmdpkg.NewMachineCmd()
	c.RunMachine = func() error {
		ctx := NewContext(c.Config.Output, c.Machine)
		ctx.printDiff(false)
		return Repl(ctx)
	}
	c.Run(args)
}

func init() { cmdpkg.Register("monitor", "interactive monitor: step, inspect and poke both cores", Main) }
