package upstream

import (
	"context"
	"fmt"

	"github.com/ralt/upgrade-advisor/internal/models"
)

// Git lists tags of any git remote with git ls-remote
type Git struct {
	opts    Options
	name    string
	remoteF func(srcRepo string) string
}

// NewGit creates the git backend; src_repo is the remote URL
func NewGit(opts Options) *Git {
	return &Git{
		opts:    opts,
		name:    models.BackendGit,
		remoteF: func(srcRepo string) string { return srcRepo },
	}
}

// NewGNOME creates the gitlab.gnome backend; src_repo is the project name
// under the GNOME group
func NewGNOME(opts Options) *Git {
	base := orDefault(opts.GNOMEURL, DefaultGNOMEURL)
	return &Git{
		opts: opts,
		name: models.BackendGNOME,
		remoteF: func(srcRepo string) string {
			return fmt.Sprintf("%s/%s.git", base, srcRepo)
		},
	}
}

// Name implements Backend
func (g *Git) Name() string {
	return g.name
}

// FetchTags implements Backend
func (g *Git) FetchTags(ctx context.Context, info *models.ProjectInfo) ([]string, error) {
	return g.opts.load(ctx, info,
		func(ctx context.Context) (string, error) {
			out, err := g.opts.runner().Run(ctx, "git", "ls-remote", "--tags", g.remoteF(info.SrcRepo))
			return string(out), err
		},
		func(raw string) ([]string, error) {
			return RefsToTags(raw), nil
		},
	)
}
