package upstream

import (
	"regexp"
	"strings"
)

var refTagRe = regexp.MustCompile(`^(\S*)\s+refs/tags/(\S+)`)

// RefsToTags extracts tag names from `git ls-remote --tags` output. Peeled
// entries ("v1.0^{}") are folded into their tag, and first appearance
// order is kept.
func RefsToTags(raw string) []string {
	seen := make(map[string]bool)
	var tags []string

	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(line, "refs/tags") {
			continue
		}
		m := refTagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tag := strings.TrimSuffix(m[2], "^{}")
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	return tags
}
