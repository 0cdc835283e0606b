// Package notify files upgrade advice as issues on the package forge.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/fetch"
	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/sirupsen/logrus"
)

// UpgradeTitle is the title of every upgrade issue
const UpgradeTitle = "Upgrade to Latest Release"

const upgradeBody = "Dear %s maintainer:\n\n" +
	"  We found the latst version of %s is %s, while the current version in openEuler is %s.\n\n" +
	"  Please consider upgrading.\n\n\n" +
	"Yours openEuler Advisor."

// Notifier publishes the outcome of a check
type Notifier interface {
	Notify(ctx context.Context, report *models.Report) error
}

// Issue is the body of a Gitee "create issue" request
type Issue struct {
	AccessToken string `json:"access_token"`
	Repo        string `json:"repo"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// Gitee opens issues through the Gitee v5 API
type Gitee struct {
	client  fetch.Client
	baseURL string
	owner   string
	token   string
}

// NewGitee creates a Gitee notifier filing issues under owner
func NewGitee(client fetch.Client, baseURL, owner, token string) *Gitee {
	return &Gitee{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		owner:   owner,
		token:   token,
	}
}

// UpgradeIssue builds the advice for an outdated project
func UpgradeIssue(report *models.Report) Issue {
	return Issue{
		Repo:  report.Project,
		Title: UpgradeTitle,
		Body:  fmt.Sprintf(upgradeBody, report.Project, report.Project, report.LatestVersion, report.CurrentVersion),
	}
}

// Notify implements Notifier
func (g *Gitee) Notify(ctx context.Context, report *models.Report) error {
	issue := UpgradeIssue(report)
	issue.AccessToken = g.token

	url := fmt.Sprintf("%s/api/v5/repos/%s/issues", g.baseURL, g.owner)
	resp, err := g.client.PostJSON(ctx, url, issue)
	if err != nil {
		return &models.AdvisorError{Type: models.ErrNotify, Project: report.Project, Err: err}
	}

	var created struct {
		Number  string `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(resp, &created); err != nil {
		logrus.WithField("project", report.Project).Debugf("Unexpected issue response: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"project": report.Project,
		"owner":   g.owner,
		"issue":   created.Number,
		"url":     created.HTMLURL,
	}).Info("Filed upgrade issue")
	return nil
}
