package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	var (
		opts        checkOptions
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "scan [project...]",
		Short: "Check many projects",
		Long: `Checks the named projects, or every project with a record in the
upstream-info and known-issues directories when none is named.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Scan.Concurrency
			}

			adv, records, err := buildAdvisor(cmd, cfg, &opts, nil)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names, err = records.List()
				if err != nil {
					return err
				}
			}
			if len(names) == 0 {
				logrus.Warn("No project records found")
				return nil
			}

			results := adv.Scan(cmd.Context(), names, concurrency)

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
				if r.Report != nil {
					printReport(out, r.Report, opts.push)
				}
			}
			printSummary(out, results)

			if failed > 0 {
				return fmt.Errorf("%d of %d projects failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Projects checked in parallel (config: scan.concurrency)")
	opts.addFlags(cmd.Flags())

	return cmd
}
