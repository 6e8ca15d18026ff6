package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/portsched/arbitration"
	"github.com/sarchlab/portsched/burst"
)

// configFlags are the scheduler parameters shared by every subcommand.
type configFlags struct {
	ports        int
	burstSize    int
	depth        int
	maxDelay     int
	gap          int
	noCredit     bool
	burstArbiter arbitration.Strategy
	flushArbiter arbitration.Strategy
}

func (f *configFlags) register(cmd *cobra.Command) {
	def := burst.DefaultConfig()
	f.burstArbiter = def.BurstArbiter
	f.flushArbiter = def.FlushArbiter

	flags := cmd.Flags()
	flags.IntVar(&f.ports, "ports", def.NumPorts, "Number of ports")
	flags.IntVar(&f.burstSize, "burst", def.BurstSize, "Items per full burst")
	flags.IntVar(&f.depth, "depth", def.FIFODepth,
		"Capacity of the port and completion queues")
	flags.IntVar(&f.maxDelay, "max-delay", def.MaxCompletionDelay,
		"Worst-case memory round trip in ticks")
	flags.IntVar(&f.gap, "gap", def.PostBurstGap,
		"Idle ticks after every burst")
	flags.BoolVar(&f.noCredit, "no-credit", false,
		"Grant bursts without reserving completion queue space")
	flags.Var(&f.burstArbiter, "burst-arbiter",
		"Arbiter for full bursts: priority, priority-rightmost, "+
			"round-robin or fcfs")
	flags.Var(&f.flushArbiter, "flush-arbiter",
		"Arbiter for flush bursts")
}

func (f *configFlags) config() burst.Config {
	return burst.Config{
		NumPorts:             f.ports,
		BurstSize:            f.burstSize,
		FIFODepth:            f.depth,
		MaxCompletionDelay:   f.maxDelay,
		BurstArbiter:         f.burstArbiter,
		FlushArbiter:         f.flushArbiter,
		PostBurstGap:         f.gap,
		SkipCompletionCredit: f.noCredit,
	}
}
