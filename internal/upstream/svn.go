package upstream

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ralt/upgrade-advisor/internal/models"
)

// SVN lists the tags directory of a Subversion repository
type SVN struct {
	opts Options
}

// NewSVN creates the svn backend
func NewSVN(opts Options) *SVN {
	return &SVN{opts: opts}
}

// Name implements Backend
func (s *SVN) Name() string {
	return models.BackendSVN
}

// FetchTags implements Backend
func (s *SVN) FetchTags(ctx context.Context, info *models.ProjectInfo) ([]string, error) {
	year := s.opts.now().Year()
	return s.opts.load(ctx, info,
		func(ctx context.Context) (string, error) {
			out, err := s.opts.runner().Run(ctx, "svn", "ls", "-v", strings.TrimSuffix(info.SrcRepo, "/")+"/tags")
			return string(out), err
		},
		func(raw string) ([]string, error) {
			return ParseSVNList(raw, info.TagPrefix, year), nil
		},
	)
}

type svnEntry struct {
	name string
	date time.Time
}

// ParseSVNList extracts entry names from `svn ls -v` output, keeps those
// containing prefix and orders them by date. Dates without a year, as svn
// prints them for recent entries, are placed in currentYear.
func ParseSVNList(raw, prefix string, currentYear int) []string {
	var entries []svnEntry
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		name := strings.TrimSuffix(fields[len(fields)-1], "/")
		if name == "" || name == "." {
			continue
		}
		if prefix != "" && !strings.Contains(name, prefix) {
			continue
		}
		entries = append(entries, svnEntry{
			name: name,
			date: parseSVNDate(fields[len(fields)-4:len(fields)-1], currentYear),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].date.Before(entries[j].date)
	})

	tags := make([]string, 0, len(entries))
	for _, e := range entries {
		tags = append(tags, e.name)
	}
	return tags
}

func parseSVNDate(fields []string, currentYear int) time.Time {
	value := strings.Join(fields, " ")
	if t, err := time.Parse("Jan 2 2006", value); err == nil {
		return t
	}
	if t, err := time.Parse("Jan 2 15:04", value); err == nil {
		return t.AddDate(currentYear, 0, 0)
	}
	return time.Time{}
}
