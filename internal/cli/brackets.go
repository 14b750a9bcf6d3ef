package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"paycalc/internal/platform/taxtable"
)

func newBracketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "Inspect statutory tax tables",
	}

	var file string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that a tax table is contiguous and well formed",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := taxtable.LoadFile(file)
			if err != nil {
				return err
			}
			policy := table.EffectivePolicy()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %q has %d brackets (ssf %s of %s-%s)\n",
				table.Name, len(table.Brackets),
				policy.SocialSecurityRate, policy.SocialSecurityFloor, policy.SocialSecurityCap)
			return nil
		},
	}
	validate.Flags().StringVarP(&file, "file", "f", "", "Tax table file (YAML)")
	_ = validate.MarkFlagRequired("file")

	show := &cobra.Command{
		Use:   "default",
		Short: "Print the built-in tax table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return taxtable.Encode(cmd.OutOrStdout(), taxtable.Default())
		},
	}

	cmd.AddCommand(validate, show)
	return cmd
}
