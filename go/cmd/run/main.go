package run

import (
	"os"

	"github.com/lunixbochs/sh2corn/go/cmd"
)

func Main(args []string) {
	c := cmd.NewMachineCmd()
	c.RunMachine = func() error {
		m := c.Machine
		m.RunCycles(c.Cycles)
		c.Config.Printf("%s", m)
		for _, core := range m.Cores {
			st := core.Cache().Stats()
			c.Config.Printf("%-9s cache: live=%d builds=%d hits=%d misses=%d invalidations=%d revives=%d\n",
				core.Name(), core.Cache().Live(), st.Builds, st.Hits, st.Misses, st.Invalidations, st.Revives)
		}
		if m.Bus.OpenBus > 0 {
			c.Config.Warnf("%d open bus accesses\n", m.Bus.OpenBus)
		}
		return nil
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("run", "run boot and cartridge images for a number of cycles", Main) }
