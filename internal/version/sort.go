package version

import (
	"slices"
)

// Sort returns a copy of tags in ascending order. Equal tags keep their
// input order, so the last element is the latest tag.
func Sort(tags []string) []string {
	sorted := slices.Clone(tags)
	slices.SortStableFunc(sorted, Compare)
	return sorted
}

// Latest returns the greatest tag of an ascending list, or "" when empty.
func Latest(sorted []string) string {
	if len(sorted) == 0 {
		return ""
	}
	return sorted[len(sorted)-1]
}

// Outdated reports whether the newest upstream tag sorts after current.
func Outdated(sorted []string, current string) bool {
	if len(sorted) == 0 {
		return false
	}
	return Compare(Latest(sorted), current) > 0
}

// NeedsReview reports whether the upstream data for a project cannot be
// trusted as is: there are no tags at all, or the newest tag sorts before
// the version already packaged.
func NeedsReview(sorted []string, current string) bool {
	if len(sorted) == 0 {
		return true
	}
	return Compare(Latest(sorted), current) < 0
}
