package upstream

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/sirupsen/logrus"
)

var hgCookieRe = regexp.MustCompile(`document\.cookie="(.*)";`)

// Hg reads the raw-tags listing of a Mercurial web server
type Hg struct {
	opts Options
}

// NewHg creates the hg backend
func NewHg(opts Options) *Hg {
	return &Hg{opts: opts}
}

// Name implements Backend
func (h *Hg) Name() string {
	return models.BackendHg
}

// FetchTags implements Backend
func (h *Hg) FetchTags(ctx context.Context, info *models.ProjectInfo) ([]string, error) {
	return h.opts.load(ctx, info,
		func(ctx context.Context) (string, error) {
			return h.fetchRawTags(ctx, strings.TrimSuffix(info.SrcRepo, "/")+"/raw-tags")
		},
		func(raw string) ([]string, error) {
			return ParseHgTags(raw), nil
		},
	)
}

// fetchRawTags retries once with the cookies set by an HTML challenge page
func (h *Hg) fetchRawTags(ctx context.Context, url string) (string, error) {
	client := h.opts.client()
	body, err := client.Get(ctx, url, nil)
	if err != nil {
		return "", err
	}

	resp := string(body)
	first, _, _ := strings.Cut(resp, "\n")
	if !strings.Contains(first, "html") {
		return resp, nil
	}

	var cookie strings.Builder
	for _, m := range hgCookieRe.FindAllStringSubmatch(resp, -1) {
		cookie.WriteString(m[1])
	}
	logrus.WithField("url", url).Debug("Got HTML, retrying with cookie")

	header := http.Header{}
	header.Set("Cookie", cookie.String())
	body, err = client.Get(ctx, url, header)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ParseHgTags returns the tag column of a raw-tags listing, skipping tip
func ParseHgTags(raw string) []string {
	var tags []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "tip") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		tags = append(tags, fields[0])
	}
	return tags
}
