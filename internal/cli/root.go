package cli

import (
	"github.com/spf13/cobra"

	"paycalc/internal/platform/logger"
)

var version = "0.1.0"

// NewRootCmd builds the paycalc command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "paycalc",
		Short: "Offline payroll calculation",
		Long: `paycalc computes payslips and run totals from a YAML document without a
database. It uses the same engine as the HTTP service.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logger.Setup(logger.LogConfig{
				Level:  logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
			return err
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newBracketsCmd())
	return root
}
