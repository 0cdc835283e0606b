package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ralt/upgrade-advisor/internal/advisor"
	"github.com/ralt/upgrade-advisor/internal/models"
)

var (
	nameColor     = color.New(color.Bold)
	outdatedColor = color.New(color.FgYellow)
	flaggedColor  = color.New(color.FgRed)
	currentColor  = color.New(color.FgGreen)
)

func printReport(w io.Writer, report *models.Report, push bool) {
	nameColor.Fprintf(w, "%s:\n", report.Project)

	latest := report.LatestVersion
	if latest == "" {
		latest = "(none)"
	}

	switch {
	case report.Flagged:
		fmt.Fprintf(w, "Latest upstream is %s\n", flaggedColor.Sprint(latest))
	case report.Outdated:
		fmt.Fprintf(w, "Latest upstream is %s\n", outdatedColor.Sprint(latest))
	default:
		fmt.Fprintf(w, "Latest upstream is %s\n", currentColor.Sprint(latest))
	}
	fmt.Fprintf(w, "Recommended is     %s (%s)\n", report.Recommended, report.Policy)
	fmt.Fprintf(w, "Current version is %s\n", report.CurrentVersion)
	fmt.Fprintf(w, "This package has %d patches\n", report.Patches)

	switch {
	case report.Flagged:
		flaggedColor.Fprintln(w, "Upstream data needs review, record kept in known-issues")
	case report.Notified:
		outdatedColor.Fprintln(w, "Pushed upgrade advice")
	case report.Outdated && push:
		outdatedColor.Fprintln(w, "Outdated, upgrade advice not pushed")
	case report.Outdated:
		outdatedColor.Fprintln(w, "Outdated")
	default:
		currentColor.Fprintln(w, "Up to date")
	}
}

func printSummary(w io.Writer, results []advisor.Result) {
	var outdated, flagged, failed []string
	for _, r := range results {
		switch {
		case r.Err != nil && r.Report == nil:
			failed = append(failed, r.Project)
		case r.Report.Flagged:
			flagged = append(flagged, r.Project)
		case r.Report.Outdated:
			outdated = append(outdated, r.Project)
		}
	}

	fmt.Fprintf(w, "\nChecked %d projects: %d outdated, %d flagged, %d failed\n",
		len(results), len(outdated), len(flagged), len(failed))
	if len(outdated) > 0 {
		fmt.Fprintf(w, "Outdated: %s\n", outdatedColor.Sprint(strings.Join(outdated, " ")))
	}
	if len(flagged) > 0 {
		fmt.Fprintf(w, "Flagged:  %s\n", flaggedColor.Sprint(strings.Join(flagged, " ")))
	}
	if len(failed) > 0 {
		fmt.Fprintf(w, "Failed:   %s\n", flaggedColor.Sprint(strings.Join(failed, " ")))
	}
}
