package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/sirupsen/logrus"
)

// GitHub lists releases, then tags, then falls back to git ls-remote
type GitHub struct {
	opts   Options
	client *github.Client
}

// NewGitHub creates the github backend
func NewGitHub(opts Options) *GitHub {
	client := github.NewClient(opts.HTTPClient)
	if opts.GitHubToken != "" {
		client = client.WithAuthToken(opts.GitHubToken)
	}
	if opts.GitHubAPIURL != "" {
		if base, err := url.Parse(strings.TrimSuffix(opts.GitHubAPIURL, "/") + "/"); err == nil {
			client.BaseURL = base
		} else {
			logrus.Warnf("Ignoring invalid GitHub API URL %q: %v", opts.GitHubAPIURL, err)
		}
	}
	return &GitHub{opts: opts, client: client}
}

// Name implements Backend
func (g *GitHub) Name() string {
	return models.BackendGitHub
}

// FetchTags implements Backend
func (g *GitHub) FetchTags(ctx context.Context, info *models.ProjectInfo) ([]string, error) {
	log := logrus.WithField("src_repo", info.SrcRepo)
	now := g.opts.now()

	if raw := CachedResponse(info, g.opts.Force, now); raw != "" {
		tags, err := parseGitHubResponse(info.QueryType, raw)
		if err == nil {
			return tags, nil
		}
		log.Warnf("Cached response unusable, fetching again: %v", err)
		info.LastQuery = nil
	}

	owner, repo, ok := strings.Cut(info.SrcRepo, "/")
	if ok && owner != "" && repo != "" {
		if tags := g.fromAPI(ctx, info, owner, repo); tags != nil {
			return tags, nil
		}
	} else {
		log.Warn("src_repo is not owner/repo, skipping the GitHub API")
	}

	log.Debug("Using git ls-remote")
	gitURL := fmt.Sprintf("%s/%s.git", orDefault(g.opts.GitHubGitURL, DefaultGitHubGitURL), info.SrcRepo)
	out, err := g.opts.runner().Run(ctx, "git", "ls-remote", "--tags", gitURL)
	if err != nil {
		return nil, err
	}

	raw := string(out)
	Remember(info, raw, now)
	info.QueryType = QueryGitLs
	return RefsToTags(raw), nil
}

// fromAPI returns nil when neither releases nor tags could be listed
func (g *GitHub) fromAPI(ctx context.Context, info *models.ProjectInfo, owner, repo string) []string {
	log := logrus.WithField("src_repo", info.SrcRepo)
	now := g.opts.now()
	listOpts := &github.ListOptions{PerPage: 100}

	log.Debug("Using api.github to get releases")
	releases, _, err := g.client.Repositories.ListReleases(ctx, owner, repo, listOpts)
	if err != nil {
		log.Debugf("Listing releases failed: %v", err)
	} else if names := releaseTags(releases); len(names) > 0 {
		if data, err := json.Marshal(releases); err == nil {
			Remember(info, string(data), now)
			info.QueryType = QueryGitHubReleases
		}
		return names
	}

	log.Debug("Using api.github to get tags")
	tags, _, err := g.client.Repositories.ListTags(ctx, owner, repo, listOpts)
	if err != nil {
		log.Debugf("Listing tags failed: %v", err)
		return nil
	}
	names := tagNames(tags)
	if len(names) == 0 {
		log.Warn("Upstream version not available from api.github")
		return nil
	}

	if data, err := json.Marshal(tags); err == nil {
		Remember(info, string(data), now)
		info.QueryType = QueryGitHubTags
	}
	return names
}

func parseGitHubResponse(queryType, raw string) ([]string, error) {
	switch queryType {
	case QueryGitHubReleases:
		var releases []*github.RepositoryRelease
		if err := json.Unmarshal([]byte(raw), &releases); err != nil {
			return nil, fmt.Errorf("decoding releases: %w", err)
		}
		return releaseTags(releases), nil
	case QueryGitHubTags:
		var tags []*github.RepositoryTag
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
		return tagNames(tags), nil
	case QueryGitLs:
		return RefsToTags(raw), nil
	default:
		return nil, fmt.Errorf("unknown query type %q", queryType)
	}
}

// releaseTags returns release tag names in creation order
func releaseTags(releases []*github.RepositoryRelease) []string {
	sorted := make([]*github.RepositoryRelease, 0, len(releases))
	for _, r := range releases {
		if r != nil && r.GetTagName() != "" {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GetCreatedAt().Time.Before(sorted[j].GetCreatedAt().Time)
	})

	names := make([]string, 0, len(sorted))
	for _, r := range sorted {
		names = append(names, r.GetTagName())
	}
	return names
}

func tagNames(tags []*github.RepositoryTag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := t.GetName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
