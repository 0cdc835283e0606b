// Package upstream retrieves the version tags published by a project's
// upstream, from GitHub, plain git, GNOME GitLab, Mercurial, Subversion,
// MetaCPAN or PyPI. Raw responses are cached in the project record and
// reused for CacheTTL.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/ralt/upgrade-advisor/internal/fetch"
	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrUnknownBackend is returned for an unsupported version_control value
var ErrUnknownBackend = errors.New("unknown version control backend")

// Values stored in ProjectInfo.QueryType
const (
	QueryGitHubReleases = "api.github.releases"
	QueryGitHubTags     = "api.github.tags"
	QueryGitLs          = "git-ls"
)

// Default upstream endpoints
const (
	DefaultGitHubGitURL = "https://github.com"
	DefaultGNOMEURL     = "https://gitlab.gnome.org/GNOME"
	DefaultMetaCPANURL  = "https://fastapi.metacpan.org"
	DefaultPyPIURL      = "https://pypi.org"
)

// Backend lists the raw tags of an upstream project
type Backend interface {
	// Name returns the version_control value served by this backend
	Name() string

	// FetchTags returns raw, uncleaned tags. It may refresh
	// info.LastQuery and info.QueryType.
	FetchTags(ctx context.Context, info *models.ProjectInfo) ([]string, error)
}

// Runner executes an external command and returns its standard output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the local system
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Never block on a credential prompt
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Options carries the collaborators shared by all backends
type Options struct {
	Client     fetch.Client
	HTTPClient *http.Client
	Runner     Runner

	// Force ignores any cached response
	Force bool
	Now   func() time.Time

	GitHubToken  string
	GitHubAPIURL string
	GitHubGitURL string
	GNOMEURL     string
	MetaCPANURL  string
	PyPIURL      string
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Options) runner() Runner {
	if o.Runner != nil {
		return o.Runner
	}
	return ExecRunner{}
}

func (o *Options) client() fetch.Client {
	if o.Client != nil {
		return o.Client
	}
	return fetch.NewFetcher()
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return strings.TrimSuffix(value, "/")
}

// load returns the tags parsed from the cached response when it is still
// fresh, and from a new fetch otherwise. Only responses that parse are
// remembered.
func (o *Options) load(ctx context.Context, info *models.ProjectInfo, fetchRaw func(ctx context.Context) (string, error), parse func(raw string) ([]string, error)) ([]string, error) {
	now := o.now()

	if raw := CachedResponse(info, o.Force, now); raw != "" {
		tags, err := parse(raw)
		if err == nil {
			return tags, nil
		}
		logrus.WithField("src_repo", info.SrcRepo).Warnf("Cached response unusable, fetching again: %v", err)
		info.LastQuery = nil
	}

	raw, err := fetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := parse(raw)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw) != "" {
		Remember(info, raw, now)
	}
	return tags, nil
}

type factory func(opts Options) Backend

var factories = map[string]factory{
	models.BackendGitHub:   func(o Options) Backend { return NewGitHub(o) },
	models.BackendGit:      func(o Options) Backend { return NewGit(o) },
	models.BackendGNOME:    func(o Options) Backend { return NewGNOME(o) },
	models.BackendHg:       func(o Options) Backend { return NewHg(o) },
	models.BackendSVN:      func(o Options) Backend { return NewSVN(o) },
	models.BackendMetaCPAN: func(o Options) Backend { return NewMetaCPAN(o) },
	models.BackendPyPI:     func(o Options) Backend { return NewPyPI(o) },
}

// New returns the backend serving versionControl
func New(versionControl string, opts Options) (Backend, error) {
	f, ok := factories[versionControl]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, versionControl)
	}
	return f(opts), nil
}

// SupportedBackends returns every accepted version_control value
func SupportedBackends() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
