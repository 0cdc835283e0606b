package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/version"
	"github.com/spf13/cobra"
)

// NewTagsCmd creates the tags command
func NewTagsCmd() *cobra.Command {
	var (
		current string
		policy  = version.PolicyLatestStable
		info    models.ProjectInfo
	)

	cmd := &cobra.Command{
		Use:   "tags [file...]",
		Short: "Clean, sort and recommend from a list of tags",
		Long: `Reads raw tags, one per line, from the given files or standard input,
cleans them with the tag rules given as flags and prints them in ascending
order. With --current, also prints the recommendation of --policy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := info.Validate(); err != nil {
				return &models.AdvisorError{Type: models.ErrInvalidConfig, Err: err}
			}

			var raw []string
			if len(args) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = lines
			}
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				lines, err := readLines(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				raw = append(raw, lines...)
			}

			sorted := version.Sort(version.NewNormalizer(&info).NormalizeAll(raw))

			out := cmd.OutOrStdout()
			for _, tag := range sorted {
				fmt.Fprintln(out, tag)
			}

			if current != "" {
				fmt.Fprintf(out, "Latest upstream is %s\n", version.Latest(sorted))
				fmt.Fprintf(out, "Recommended is     %s (%s)\n", version.Recommend(sorted, current, policy), policy)
				fmt.Fprintf(out, "Current version is %s\n", current)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Packaged version to recommend an upgrade for")
	cmd.Flags().Var(&policy, "policy", "Recommendation policy: latest, latest-stable, prefer-stable or default")
	cmd.Flags().StringVar(&info.TagPrefix, "tag-prefix", "", "Regular expression removed from every tag")
	cmd.Flags().StringVar(&info.TagPattern, "tag-pattern", "", "Regular expression whose first group is the version")
	cmd.Flags().StringVar(&info.Separator, "separator", "", "Separator replaced by '.' in every tag")

	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	return lines, s.Err()
}
