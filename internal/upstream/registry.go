package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/models"
)

// Registry reads the single current version published by a package index
type Registry struct {
	opts    Options
	name    string
	url     func(srcRepo string) string
	version func(doc []byte) (string, error)
}

// NewMetaCPAN creates the metacpan backend
func NewMetaCPAN(opts Options) *Registry {
	base := orDefault(opts.MetaCPANURL, DefaultMetaCPANURL)
	return &Registry{
		opts: opts,
		name: models.BackendMetaCPAN,
		url: func(srcRepo string) string {
			return fmt.Sprintf("%s/release/%s", base, srcRepo)
		},
		version: metaCPANVersion,
	}
}

// NewPyPI creates the pypi backend
func NewPyPI(opts Options) *Registry {
	base := orDefault(opts.PyPIURL, DefaultPyPIURL)
	return &Registry{
		opts: opts,
		name: models.BackendPyPI,
		url: func(srcRepo string) string {
			return fmt.Sprintf("%s/pypi/%s/json", base, srcRepo)
		},
		version: pyPIVersion,
	}
}

// Name implements Backend
func (r *Registry) Name() string {
	return r.name
}

// FetchTags implements Backend
func (r *Registry) FetchTags(ctx context.Context, info *models.ProjectInfo) ([]string, error) {
	return r.opts.load(ctx, info,
		func(ctx context.Context) (string, error) {
			body, err := r.opts.client().Get(ctx, r.url(info.SrcRepo), nil)
			return string(body), err
		},
		func(raw string) ([]string, error) {
			v, err := r.version([]byte(raw))
			if err != nil {
				return nil, err
			}
			if v == "" {
				return nil, nil
			}
			return []string{v}, nil
		},
	)
}

func metaCPANVersion(doc []byte) (string, error) {
	var release struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(doc, &release); err != nil {
		return "", fmt.Errorf("decoding metacpan release: %w", err)
	}

	raw := strings.TrimSpace(string(release.Version))
	if raw == "" || raw == "null" {
		return "", nil
	}
	// Numeric versions are kept as written, "1.10" must not become "1.1"
	if !strings.HasPrefix(raw, `"`) {
		return raw, nil
	}
	var v string
	if err := json.Unmarshal(release.Version, &v); err != nil {
		return "", fmt.Errorf("decoding metacpan version: %w", err)
	}
	return strings.TrimSpace(v), nil
}

func pyPIVersion(doc []byte) (string, error) {
	var project struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.Unmarshal(doc, &project); err != nil {
		return "", fmt.Errorf("decoding pypi project: %w", err)
	}
	return strings.TrimSpace(project.Info.Version), nil
}
