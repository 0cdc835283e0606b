package version

import (
	"regexp"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/sirupsen/logrus"
)

// Normalizer cleans raw upstream tags for one project
type Normalizer struct {
	pattern   *regexp.Regexp
	prefix    *regexp.Regexp
	rawPrefix string
	separator string
}

// NewNormalizer prepares the cleaning rules declared by info. Expressions
// that fail to compile are reported and replaced by a literal match, so a
// broken record still yields tags.
func NewNormalizer(info *models.ProjectInfo) *Normalizer {
	n := &Normalizer{}
	if info == nil {
		return n
	}

	if info.TagPattern != "" {
		re, err := regexp.Compile(info.TagPattern)
		if err != nil {
			logrus.WithField("src_repo", info.SrcRepo).Warnf("Ignoring tag_pattern: %v", err)
		} else {
			n.pattern = re
		}
	} else if info.TagPrefix != "" {
		re, err := regexp.Compile(info.TagPrefix)
		if err != nil {
			logrus.WithField("src_repo", info.SrcRepo).Debugf("tag_prefix is not a regexp, matching literally: %v", err)
			n.rawPrefix = info.TagPrefix
		} else {
			n.prefix = re
		}
	}

	n.separator = info.Separator
	return n
}

// Normalize cleans a single raw tag
func (n *Normalizer) Normalize(tag string) string {
	switch {
	case n.pattern != nil:
		tag = n.pattern.ReplaceAllString(tag, "${1}")
	case n.prefix != nil:
		tag = n.prefix.ReplaceAllString(tag, "")
	case n.rawPrefix != "":
		tag = strings.ReplaceAll(tag, n.rawPrefix, "")
	}

	if n.separator != "" {
		tag = strings.ReplaceAll(tag, n.separator, ".")
	}

	return strings.TrimRight(tag, "\n")
}

// NormalizeAll cleans every tag, dropping the ones left empty
func (n *Normalizer) NormalizeAll(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if c := n.Normalize(tag); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return cleaned
}

// Normalize cleans tag with the rules declared by info
func Normalize(tag string, info *models.ProjectInfo) string {
	return NewNormalizer(info).Normalize(tag)
}
