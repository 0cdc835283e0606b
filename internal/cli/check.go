package cli

import (
	"fmt"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/specsource"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var (
		opts     checkOptions
		repo     string
		specPath string
		srpmPath string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one project against its upstream",
		Long: `Reads the packaged version from the project's spec file, lists the
upstream tags and prints the latest and recommended versions. The project
record is moved to the known-issues directory when upstream yields no tags
or only tags older than the packaged version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repo == "" {
				return &models.AdvisorError{Type: models.ErrInvalidConfig, Err: models.ErrMissingProject}
			}
			if specPath != "" && srpmPath != "" {
				return &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("--spec and --srpm are exclusive")}
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var specs specsource.Source
			switch {
			case specPath != "":
				specs = &specsource.File{Path: specPath}
			case srpmPath != "":
				specs = &specsource.SRPM{Path: srpmPath}
			}

			adv, _, err := buildAdvisor(cmd, cfg, &opts, specs)
			if err != nil {
				return err
			}

			logrus.Infof("Checking %s", repo)
			report, err := adv.Check(cmd.Context(), repo)
			if report != nil {
				printReport(cmd.OutOrStdout(), report, opts.push)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&repo, "repo", "r", "", "Repo to check upstream info")
	cmd.Flags().StringVar(&specPath, "spec", "", "Read the packaged version from a local spec file (.spec, .spec.gz, .spec.xz, .spec.zst)")
	cmd.Flags().StringVar(&srpmPath, "srpm", "", "Read the packaged version from a source RPM")
	opts.addFlags(cmd.Flags())

	return cmd
}
