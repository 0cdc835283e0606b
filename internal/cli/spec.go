package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/rpmspec"
	"github.com/ralt/upgrade-advisor/internal/scanner"
	"github.com/ralt/upgrade-advisor/internal/specsource"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewSpecCmd creates the spec command
func NewSpecCmd() *cobra.Command {
	var showMacros bool

	cmd := &cobra.Command{
		Use:   "spec <file|dir>...",
		Short: "Print the metadata extracted from spec files",
		Long: `Parses spec files, compressed spec files and source RPMs. Directories
are scanned recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var sc scanner.Scanner = scanner.NewFileSystemScanner()

			for _, arg := range args {
				fi, err := os.Stat(arg)
				if err != nil {
					return err
				}

				paths := []string{arg}
				if fi.IsDir() {
					logrus.Infof("Scanning directory: %s", arg)
					inputs, err := sc.Scan(cmd.Context(), arg)
					if err != nil {
						return &models.AdvisorError{
							Type: models.ErrSpecParse,
							Err:  fmt.Errorf("failed to scan directory: %w", err),
						}
					}
					paths = paths[:0]
					for _, in := range inputs {
						paths = append(paths, in.Path)
					}
					if len(paths) == 0 {
						logrus.Warnf("No spec files found in %s", arg)
					}
				}

				for _, path := range paths {
					spec, err := (&specsource.File{Path: path}).Load(cmd.Context(), "")
					if err != nil {
						logrus.Warnf("Failed to parse %s: %v", path, err)
						continue
					}
					printSpec(out, path, spec, showMacros)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showMacros, "macros", "m", false, "Also print the macro table")
	return cmd
}

func printSpec(w io.Writer, path string, spec *rpmspec.Spec, showMacros bool) {
	nameColor.Fprintf(w, "%s:\n", path)
	fmt.Fprintf(w, "  name:           %s\n", spec.Name)
	fmt.Fprintf(w, "  version:        %s\n", spec.Version)
	fmt.Fprintf(w, "  release:        %s\n", spec.Release)
	fmt.Fprintf(w, "  patches:        %d\n", spec.Diverse())
	printSet(w, "build_requires", spec.BuildRequires)
	printSet(w, "requires", spec.Requires)
	printSet(w, "provides", spec.Provides)
	printSet(w, "sources", spec.ExpandMacros(spec.Sources))

	if showMacros {
		fmt.Fprintln(w, "  macros:")
		names := rpmspec.NewSet()
		for name := range spec.Macros {
			names.Add(name)
		}
		for _, name := range names.Sorted() {
			fmt.Fprintf(w, "    %s = %s\n", name, spec.Macros[name])
		}
	}
}

func printSet(w io.Writer, label string, set rpmspec.Set) {
	fmt.Fprintf(w, "  %-15s %s\n", label+":", strings.Join(set.Sorted(), " "))
}
