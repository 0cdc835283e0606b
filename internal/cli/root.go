package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "upgrade-advisor",
		Short: "Recommend upstream upgrades for packaged projects",
		Long: `Upgrade-advisor compares the version packaged in a project's spec file
with the tags published upstream, recommends an upgrade target and keeps
a per-project record of the upstream location and its last response.

Supported upstreams:
  - GitHub (releases, tags, git ls-remote)
  - Plain git and GNOME GitLab
  - Mercurial and Subversion
  - MetaCPAN and PyPI`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./upgrade-advisor.yaml if present)")

	// Add subcommands
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewSpecCmd())
	rootCmd.AddCommand(NewCompareCmd())
	rootCmd.AddCommand(NewTagsCmd())

	return rootCmd
}
