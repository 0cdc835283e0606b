// Package advisor checks packaged projects against their upstream: it
// reads the packaged version from the spec file, lists the upstream tags,
// recommends an upgrade target and keeps the project record up to date.
package advisor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/notify"
	"github.com/ralt/upgrade-advisor/internal/specsource"
	"github.com/ralt/upgrade-advisor/internal/upstream"
	"github.com/ralt/upgrade-advisor/internal/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RecordStore loads and saves project records
type RecordStore interface {
	Load(name string) (*models.ProjectInfo, bool, error)
	Save(name string, info *models.ProjectInfo, flagged bool) error
}

// BackendFactory returns the backend for a version_control value
type BackendFactory func(versionControl string, opts upstream.Options) (upstream.Backend, error)

// Config configures an Advisor
type Config struct {
	Store    RecordStore
	Specs    specsource.Source
	Upstream upstream.Options
	Policy   version.Policy

	// Notifier receives outdated projects when Push is set
	Notifier notify.Notifier
	Push     bool

	// Backends defaults to upstream.New
	Backends BackendFactory
}

// Advisor runs checks
type Advisor struct {
	config Config
}

// New creates an Advisor
func New(config Config) *Advisor {
	if config.Backends == nil {
		config.Backends = upstream.New
	}
	return &Advisor{config: config}
}

// Check compares the packaged version of name with its upstream tags and
// saves the refreshed record, in the known-issues store when flagged.
func (a *Advisor) Check(ctx context.Context, name string) (*models.Report, error) {
	if name == "" {
		return nil, models.ErrMissingProject
	}
	log := logrus.WithField("project", name)

	spec, err := a.config.Specs.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if spec.Version == "" {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: errors.New("spec declares no version")}
	}

	info, _, err := a.config.Store.Load(name)
	if err != nil {
		return nil, err
	}
	if err := info.Validate(); err != nil {
		log.Warnf("Record has invalid tag rules: %v", err)
	}

	rawTags := a.fetchTags(ctx, name, info)
	tags := version.Sort(version.NewNormalizer(info).NormalizeAll(rawTags))

	report := &models.Report{
		Project:        name,
		CurrentVersion: spec.Version,
		LatestVersion:  version.Latest(tags),
		Recommended:    version.Recommend(tags, spec.Version, a.config.Policy),
		Policy:         a.config.Policy.String(),
		Patches:        spec.Diverse(),
		Tags:           tags,
		Outdated:       version.Outdated(tags, spec.Version),
		Flagged:        version.NeedsReview(tags, spec.Version),
	}

	if report.Flagged {
		log.WithField("tags", tags).Debug("Upstream data needs review")
	}

	if err := a.config.Store.Save(name, info, report.Flagged); err != nil {
		return report, err
	}

	if a.config.Push && report.Outdated && a.config.Notifier != nil {
		if err := a.config.Notifier.Notify(ctx, report); err != nil {
			return report, err
		}
		report.Notified = true
	}

	return report, nil
}

// fetchTags returns the raw upstream tags. Failures are logged and yield no
// tags, which flags the project for review.
func (a *Advisor) fetchTags(ctx context.Context, name string, info *models.ProjectInfo) []string {
	log := logrus.WithFields(logrus.Fields{
		"project":         name,
		"version_control": info.VersionControl,
	})

	backend, err := a.config.Backends(info.VersionControl, a.config.Upstream)
	if err != nil {
		log.Warnf("Cannot query upstream: %v", err)
		return nil
	}

	tags, err := backend.FetchTags(ctx, info)
	if err != nil {
		log.Warnf("Fetching upstream tags failed: %v", err)
		return nil
	}

	log.Debugf("Got %d upstream tags", len(tags))
	return tags
}

// Result is the outcome of one project in a scan
type Result struct {
	Project string
	Report  *models.Report
	Err     error
}

// Scan checks every project with at most concurrency checks in flight.
// A failing project does not stop the others; results keep the order of
// names.
func (a *Advisor) Scan(ctx context.Context, names []string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	logrus.WithFields(logrus.Fields{
		"projects":    len(names),
		"concurrency": concurrency,
	}).Info("Scanning projects")

	results := make([]Result, len(names))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			// Check for context cancellation
			if err := gctx.Err(); err != nil {
				results[i] = Result{Project: name, Err: err}
				return nil
			}

			report, err := a.Check(gctx, name)
			if err != nil {
				failed.Add(1)
				logrus.WithField("project", name).Errorf("Check failed: %v", err)
			}
			results[i] = Result{Project: name, Report: report, Err: err}
			return nil
		})
	}

	// Goroutines never return an error
	_ = g.Wait()

	logrus.WithFields(logrus.Fields{
		"projects": len(names),
		"failed":   failed.Load(),
	}).Info("Scan complete")
	return results
}
