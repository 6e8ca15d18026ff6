package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sarchlab/portsched/datarecording"
	"github.com/sarchlab/portsched/scenario"
	"github.com/sarchlab/portsched/sim/hooking"
)

// scenarioFlags describe the uniform scenario run and sweep play.
type scenarioFlags struct {
	configFlags

	latency     int
	acceptEvery int
	items       int
	maxTicks    uint64
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	f.configFlags.register(cmd)

	flags := cmd.Flags()
	flags.IntVar(&f.latency, "latency", 3, "Memory round trip in ticks")
	flags.IntVar(&f.acceptEvery, "accept-every", 1,
		"Accept a request only every n ticks")
	flags.IntVar(&f.items, "items", 10, "Items every port submits")
	flags.Uint64Var(&f.maxTicks, "max-ticks", 1_000_000,
		"Give up after this many ticks")
}

func (f *scenarioFlags) scenario() scenario.Scenario {
	s := scenario.Uniform(f.config(), f.latency, f.items)
	s.AcceptEvery = f.acceptEvery

	return s
}

type runFlags struct {
	scenarioFlags

	record string
	trace  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	f.scenarioFlags.register(cmd)

	flags := cmd.Flags()
	flags.StringVar(&f.record, "record", "",
		"Record bursts, completions and faults to <record>.sqlite3")
	flags.BoolVar(&f.trace, "trace", false,
		"Log every scheduler event at debug level")
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scenario.",
		Long: "`run` drives every port with --items sequential items, " +
			"closes the ports, and runs until the scheduler drains.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := loggerFor(cmd)
			if err != nil {
				return err
			}

			return runScenario(cmd, logger, &flags)
		},
	}

	flags.register(runCmd)

	return runCmd
}

func runScenario(cmd *cobra.Command, logger *Logger, flags *runFlags) error {
	s := flags.scenario()
	b := scenario.MakeBuilder().WithScenario(s)

	if flags.record != "" {
		recorder := datarecording.New(flags.record)
		defer recorder.Close()

		b = b.WithRecorder(recorder)
	}

	if flags.trace {
		b = b.WithHook(hooking.NewLogHook(logger.Logger, slog.LevelDebug))
	}

	runner, err := b.Build("Burstsim")
	if err != nil {
		return err
	}

	rep, err := runner.Run(cmd.Context(), flags.maxTicks)
	runLog := logger.WithScenario(s.Name).WithRun(rep.RunID)

	if err != nil {
		runLog.Error("run failed", "report", rep, "err", err)
		return err
	}

	if err := rep.VerifyFIFO(); err != nil {
		runLog.Error("completions out of order", "err", err)
		return err
	}

	runLog.Info("run finished", "report", rep)

	fmt.Fprintf(cmd.OutOrStdout(),
		"%d ticks, %d bursts (%d flushes), %d completions, %d flags\n",
		rep.Ticks, len(rep.Bursts), rep.NumFlushes(), rep.NumCompletions(),
		rep.Flags.Total())

	return nil
}
