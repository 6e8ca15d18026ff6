// Package cmd provides the command-line interface of burstsim.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the burstsim command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "burstsim",
		Short: "burstsim shares a single-ported memory among many ports " +
			"with a burst scheduler.",
		Long: `burstsim builds a burst scheduler in front of an ideal ` +
			`memory, drives every port with sequential items, and reports ` +
			`the bursts and completions. Every flag can also be set with a ` +
			`BURSTSIM_<FLAG> environment variable or in a .env file.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("env-file", ".env",
		"File to read BURSTSIM_* variables from")
	rootCmd.PersistentFlags().String("log-level", "info",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text",
		"Log format: text or json")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return loadEnv(cmd, envFile)
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newSweepCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

// Execute runs the root command and exits with status 1 on error. An
// interrupt stops a running scenario between two ticks.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func loggerFor(cmd *cobra.Command) (*Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}

	return NewLogger(cmd.ErrOrStderr(), format, level)
}
