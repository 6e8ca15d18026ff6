package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "BURSTSIM_"

// envName maps a flag name to its environment variable, e.g. burst-arbiter
// to BURSTSIM_BURST_ARBITER.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// loadEnv reads the .env file, if any, and fills every flag that was not set
// on the command line from the environment.
func loadEnv(cmd *cobra.Command, envFile string) error {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var errs []error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}

		value, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		if err := cmd.Flags().Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", envName(f.Name), err))
		}
	})

	return errors.Join(errs...)
}
