package rpmspec

import (
	"regexp"
	"sort"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`%\{([^{}]*)\}`)
	versionOpRe   = regexp.MustCompile(`[<=>!]`)
)

// Macros maps macro names to their replacement text
type Macros map[string]string

// Expand resolves the first %{ident} placeholder found in text. When ident
// is a known macro every occurrence of that placeholder is replaced;
// otherwise text is returned untouched.
func Expand(text string, macros Macros) string {
	m := placeholderRe.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	value, ok := macros[m[1]]
	if !ok {
		return text
	}
	return strings.ReplaceAll(text, m[0], value)
}

// expandAll resolves every distinct placeholder of text once. Unknown
// macros stay in place; some need a shell to expand and can't be handled
// here.
func expandAll(text string, macros Macros) string {
	seen := make(map[string]bool)
	out := text
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		if value, ok := macros[m[1]]; ok {
			out = strings.ReplaceAll(out, m[0], value)
		}
	}
	return out
}

// Set is an unordered collection of strings
type Set map[string]struct{}

// NewSet creates a set holding items
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts items into the set
func (s Set) Add(items ...string) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

// Has reports whether item is in the set
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// CleanDependencySet reduces raw dependency tokens to package names.
// Version fragments are dropped, "name OP version" entries keep only the
// name and macro placeholders are expanded where the table knows them.
// The input set is left unchanged.
func CleanDependencySet(set Set, macros Macros) Set {
	cleaned := make(Set, len(set))
	for token := range set {
		if token == "" {
			continue
		}
		switch {
		case strings.ContainsAny(token[:1], "0123456789<=>!"):
			// Bare version fragment split off a versioned line
			continue
		case versionOpRe.MatchString(token):
			name := dependencyName(token)
			if strings.Contains(name, "%{") {
				name = expandAll(name, macros)
			}
			if name != "" {
				cleaned.Add(name)
			}
		case strings.Contains(token, "%{"):
			cleaned.Add(expandAll(token, macros))
		default:
			cleaned.Add(token)
		}
	}
	return cleaned
}

// dependencyName returns the leading name of "name OP version"
func dependencyName(token string) string {
	end := strings.IndexAny(token, " \t<=>!")
	if end < 0 {
		return token
	}
	return token[:end]
}
