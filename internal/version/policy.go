package version

import (
	"fmt"
	"slices"
	"strings"
)

// Policy selects how an upgrade target is picked from the upstream tags
type Policy int

const (
	// PolicyDefault keeps the current version
	PolicyDefault Policy = iota
	// PolicyLatest picks the greatest tag
	PolicyLatest
	// PolicyLatestStable picks the greatest tag that looks like a full release
	PolicyLatestStable
	// PolicyPreferStable stays on the current release line
	PolicyPreferStable
)

// String returns the string representation of Policy
func (p Policy) String() string {
	switch p {
	case PolicyLatest:
		return "latest"
	case PolicyLatestStable:
		return "latest-stable"
	case PolicyPreferStable:
		return "prefer-stable"
	default:
		return "default"
	}
}

// ParsePolicy maps a policy name to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return PolicyDefault, nil
	case "latest":
		return PolicyLatest, nil
	case "latest-stable":
		return PolicyLatestStable, nil
	case "prefer-stable", "perfer-stable":
		return PolicyPreferStable, nil
	default:
		return PolicyDefault, fmt.Errorf("unknown policy %q (want latest, latest-stable, prefer-stable or default)", s)
	}
}

// Set implements pflag.Value
func (p *Policy) Set(s string) error {
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value
func (p *Policy) Type() string {
	return "policy"
}

// Recommend picks an upgrade target from tags, which must be sorted in
// ascending order. The input slice is not modified. When nothing fits,
// current is returned.
func Recommend(sorted []string, current string, policy Policy) string {
	desc := slices.Clone(sorted)
	slices.Reverse(desc)

	if len(desc) == 0 {
		return current
	}

	switch policy {
	case PolicyLatest:
		return desc[0]
	case PolicyLatestStable:
		return latestStable(desc, current)
	case PolicyPreferStable:
		return preferStable(desc, current)
	default:
		return current
	}
}

func latestStable(desc []string, current string) string {
	full := firstWithComponents(desc, 3)
	short := firstWithComponents(desc, 2)

	if full == "" && short == "" {
		return current
	}
	if full == "" {
		full = current
	}
	if short == "" {
		short = current
	}

	// A newer major line with only two components beats an older x.y.z
	if compareLeadingNumber(leadingToken(short), leadingToken(full)) > 0 {
		return short
	}
	return full
}

func firstWithComponents(desc []string, n int) string {
	for _, tag := range desc {
		if numericComponents(tag) >= n {
			return tag
		}
	}
	return ""
}

// numericComponents counts the dot separated components that start with
// a digit.
func numericComponents(tag string) int {
	count := 0
	for _, tok := range Tokens(tag) {
		if tok != "" && tok[0] >= '0' && tok[0] <= '9' {
			count++
		}
	}
	return count
}

func leadingToken(tag string) string {
	tokens := Tokens(tag)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

func preferStable(desc []string, current string) string {
	for _, tag := range desc {
		if strings.HasPrefix(tag, current) {
			return tag
		}
	}

	tokens := Tokens(current)
	if len(tokens) >= 3 {
		line := strings.Join(tokens[:2], ".")
		for _, tag := range desc {
			if strings.HasPrefix(tag, line) {
				return tag
			}
		}
	}

	return current
}
