package cli

import (
	"fmt"

	"github.com/ralt/upgrade-advisor/internal/version"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command
func NewCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two version tags",
		Long:  `Prints -1, 0 or 1 as a sorts before, equal to or after b.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Compare(args[0], args[1]))
			return nil
		},
	}
}
