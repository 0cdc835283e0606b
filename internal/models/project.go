package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the version_control field
const (
	BackendGitHub   = "github"
	BackendGit      = "git"
	BackendHg       = "hg"
	BackendSVN      = "svn"
	BackendMetaCPAN = "metacpan"
	BackendGNOME    = "gitlab.gnome"
	BackendPyPI     = "pypi"
)

// ProjectInfo is the persisted upstream record of one package
type ProjectInfo struct {
	SrcRepo        string `yaml:"src_repo"`
	VersionControl string `yaml:"version_control"`

	// Tag cleaning. TagPattern wins over TagPrefix when both are set.
	TagPattern string `yaml:"tag_pattern,omitempty"`
	TagPrefix  string `yaml:"tag_prefix,omitempty"`
	Separator  string `yaml:"seperator,omitempty"`

	LastQuery *LastQuery `yaml:"last_query,omitempty"`
	QueryType string     `yaml:"query_type,omitempty"`

	// Keys written by other tools are kept on round trip
	Extra map[string]interface{} `yaml:",inline"`
}

// LastQuery is a captured upstream response
type LastQuery struct {
	TimeStamp Timestamp `yaml:"time_stamp"`
	RawData   string    `yaml:"raw_data"`
}

// Validate checks that the tag cleaning expressions compile
func (p *ProjectInfo) Validate() error {
	if p.TagPattern != "" {
		re, err := regexp.Compile(p.TagPattern)
		if err != nil {
			return fmt.Errorf("invalid tag_pattern %q: %w", p.TagPattern, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("tag_pattern %q has no capture group", p.TagPattern)
		}
	}
	if p.TagPrefix != "" {
		if _, err := regexp.Compile(p.TagPrefix); err != nil {
			return fmt.Errorf("invalid tag_prefix %q: %w", p.TagPrefix, err)
		}
	}
	return nil
}

// Timestamp is a time.Time that also accepts the layouts written by
// Ruby's YAML emitter.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999 Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses s using any of the accepted layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimestamp(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.Time.Format(time.RFC3339Nano), nil
}
