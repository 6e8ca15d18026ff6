package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sarchlab/portsched/arbitration"
	"github.com/sarchlab/portsched/scenario"
)

func newSweepCommand() *cobra.Command {
	var (
		flags       scenarioFlags
		parallelism int
	)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the scenario once per burst arbiter.",
		Long: "`sweep` runs the `run` scenario with every burst arbitration " +
			"strategy in parallel and prints one line per strategy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := loggerFor(cmd)
			if err != nil {
				return err
			}

			strategies := []arbitration.Strategy{
				arbitration.StrategyPriority,
				arbitration.StrategyPriorityRightmost,
				arbitration.StrategyRoundRobin,
				arbitration.StrategyFCFS,
			}

			scenarios := make([]scenario.Scenario, len(strategies))
			for i, strategy := range strategies {
				scenarios[i] = flags.scenario()
				scenarios[i].Name = strategy.String()
				scenarios[i].Config.BurstArbiter = strategy
			}

			reports, err := scenario.Sweep(cmd.Context(), scenarios,
				flags.maxTicks, parallelism)
			if err != nil {
				logger.Error("sweep failed", "err", err)
				return err
			}

			for _, rep := range reports {
				logger.Debug("run finished", "report", rep)
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %8d ticks %6d bursts\n",
					rep.Name, rep.Ticks, len(rep.Bursts))
			}

			return nil
		},
	}

	flags.register(sweepCmd)
	sweepCmd.Flags().IntVar(&parallelism, "parallel", runtime.NumCPU(),
		"Scenarios run at the same time")

	return sweepCmd
}
