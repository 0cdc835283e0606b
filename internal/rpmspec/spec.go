// Package rpmspec extracts the metadata an upgrade check needs from RPM
// spec files: name, version, release, the %global/%define macro table,
// dependency names and the declared sources and patches.
//
// Only the line patterns needed for those fields are recognised; this is
// not a general spec grammar.
package rpmspec

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// Default macros present before any line is read
var defaultMacros = Macros{
	"epoch": "1",
	"?_isa": "aarch64",
}

var (
	nameRe          = regexp.MustCompile(`(?i)^name\s*:\s*(\S*)`)
	versionRe       = regexp.MustCompile(`(?i)^version\s*:\s*(\S*)`)
	releaseRe       = regexp.MustCompile(`(?i)^release\s*:\s*(\S*)`)
	macroDefRe      = regexp.MustCompile(`%(?:global|define)\s+(\S+)\s*(.*)$`)
	buildRequiresRe = regexp.MustCompile(`(?i)^\s*BuildRequires\s*:\s*(.*)$`)
	requiresRe      = regexp.MustCompile(`(?i)^\s*Requires(?:\([^)]*\))?\s*:\s*(.*)$`)
	providesRe      = regexp.MustCompile(`(?i)^\s*Provides\s*:\s*(.*)$`)
	sourceRe        = regexp.MustCompile(`(?i)^\s*Source\d*\s*:\s*(.*)$`)
	patchRe         = regexp.MustCompile(`(?i)^\s*Patch\d*\s*:\s*(.*)$`)
)

// Spec holds the metadata extracted from a spec file
type Spec struct {
	Name    string
	Version string
	Release string
	Macros  Macros

	BuildRequires Set
	Requires      Set
	Provides      Set

	Sources Set
	Patches Set
}

// Parse extracts metadata from spec text. Malformed or empty input yields
// a Spec with empty fields.
func Parse(text string) *Spec {
	spec, _ := ParseReader(strings.NewReader(text))
	return spec
}

// ParseReader extracts metadata from a spec read from r. The returned Spec
// is complete up to the point a read error occurred.
func ParseReader(r io.Reader) (*Spec, error) {
	spec := newSpec()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		spec.parseLine(strings.TrimRight(scanner.Text(), "\r"))
	}
	err := scanner.Err()

	spec.finalize()
	return spec, err
}

func newSpec() *Spec {
	macros := make(Macros, len(defaultMacros))
	for k, v := range defaultMacros {
		macros[k] = v
	}
	return &Spec{
		Macros:        macros,
		BuildRequires: NewSet(),
		Requires:      NewSet(),
		Provides:      NewSet(),
		Sources:       NewSet(),
		Patches:       NewSet(),
	}
}

// parseLine tests one physical line against every rule
func (s *Spec) parseLine(line string) {
	if m := nameRe.FindStringSubmatch(line); m != nil {
		s.Name = m[1]
	}
	if m := versionRe.FindStringSubmatch(line); m != nil {
		s.Version = m[1]
	}
	if m := releaseRe.FindStringSubmatch(line); m != nil {
		s.Release = m[1]
	}
	if m := macroDefRe.FindStringSubmatch(line); m != nil {
		s.Macros[m[1]] = macroValue(m[2])
	}

	if m := buildRequiresRe.FindStringSubmatch(line); m != nil {
		s.BuildRequires.Add(splitTags(m[1])...)
	}
	if m := requiresRe.FindStringSubmatch(line); m != nil {
		s.Requires.Add(splitTags(m[1])...)
	}
	if m := providesRe.FindStringSubmatch(line); m != nil {
		s.Provides.Add(splitTags(m[1])...)
	}

	if m := sourceRe.FindStringSubmatch(line); m != nil {
		s.Sources.Add(strings.TrimSpace(m[1]))
	}
	if m := patchRe.FindStringSubmatch(line); m != nil {
		s.Patches.Add(strings.TrimSpace(m[1]))
	}
}

// finalize expands name, version and release in that order, each one
// becoming available as a macro for the next, then cleans the
// dependency sets.
func (s *Spec) finalize() {
	s.Name = Expand(s.Name, s.Macros)
	s.Macros["name"] = s.Name

	s.Version = Expand(s.Version, s.Macros)
	s.Macros["version"] = s.Version

	s.Release = Expand(s.Release, s.Macros)
	s.Macros["release"] = s.Release

	s.BuildRequires = CleanDependencySet(s.BuildRequires, s.Macros)
	s.Requires = CleanDependencySet(s.Requires, s.Macros)
	s.Provides = CleanDependencySet(s.Provides, s.Macros)
}

// macroValue trims a definition body. A definition written inside an
// inline conditional such as %{!?ver: %global ver 1.0} loses the
// conditional's closing braces.
func macroValue(value string) string {
	value = strings.TrimSpace(value)
	for strings.HasSuffix(value, "}") && strings.Count(value, "}") > strings.Count(value, "{") {
		value = strings.TrimSpace(strings.TrimSuffix(value, "}"))
	}
	return value
}

// splitTags splits the value of a dependency line. Commas separate
// entries when present. Otherwise the line is split on whitespace, and
// only when it holds at least two words.
func splitTags(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if !strings.Contains(value, ",") {
		fields := strings.Fields(value)
		if len(fields) < 2 {
			return nil
		}
		return fields
	}

	var tags []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// Diverse returns the number of patches carried by the package, a rough
// measure of how far it has drifted from upstream.
func (s *Spec) Diverse() int {
	return len(s.Patches)
}

// ExpandMacros runs the dependency cleaning rules over set using this
// spec's macro table. It is used to resolve Source entries into URLs.
func (s *Spec) ExpandMacros(set Set) Set {
	return CleanDependencySet(set, s.Macros)
}
