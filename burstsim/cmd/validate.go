package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/portsched/burst"
)

func newValidateCommand() *cobra.Command {
	var flags configFlags

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scheduler configuration.",
		Long: "`validate` prints every problem of the configuration given " +
			"by the flags and fails if there is any.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := flags.config().Validate()
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
				return nil
			}

			var joined interface{ Unwrap() []error }
			if errors.As(err, &joined) {
				for _, e := range joined.Unwrap() {
					var cfgErr *burst.ConfigError
					if errors.As(e, &cfgErr) {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n",
							cfgErr.Field, cfgErr.Reason)
					}
				}
			}

			return err
		},
	}

	flags.register(validateCmd)

	return validateCmd
}
