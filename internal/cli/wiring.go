package cli

import (
	"fmt"

	"github.com/ralt/upgrade-advisor/internal/advisor"
	"github.com/ralt/upgrade-advisor/internal/config"
	"github.com/ralt/upgrade-advisor/internal/fetch"
	"github.com/ralt/upgrade-advisor/internal/notify"
	"github.com/ralt/upgrade-advisor/internal/specsource"
	"github.com/ralt/upgrade-advisor/internal/store"
	"github.com/ralt/upgrade-advisor/internal/upstream"
	"github.com/ralt/upgrade-advisor/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// checkOptions are the flags shared by check and scan
type checkOptions struct {
	policy version.Policy
	push   bool
	force  bool
}

func (o *checkOptions) addFlags(flags *pflag.FlagSet) {
	flags.VarP(&o.policy, "policy", "P", "Recommendation policy: latest, latest-stable, prefer-stable or default (config: policy)")
	flags.BoolVarP(&o.push, "push", "p", false, "File an upgrade issue for outdated projects")
	flags.BoolVarP(&o.force, "force", "f", false, "Ignore cached upstream responses")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Configuration: %+v", *cfg)
	return cfg, nil
}

func newClient(cfg *config.Config) *fetch.CircuitBreakerFetcher {
	return fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(
		fetch.WithTimeout(cfg.HTTP.Timeout),
		fetch.WithMaxRetries(cfg.HTTP.MaxRetries),
		fetch.WithBaseDelay(cfg.HTTP.BaseDelay),
		fetch.WithRateLimit(cfg.HTTP.RateLimit),
		fetch.WithUserAgent(cfg.HTTP.UserAgent),
	))
}

// buildAdvisor assembles an Advisor reading specs from specs, or from the
// configured forge when specs is nil
func buildAdvisor(cmd *cobra.Command, cfg *config.Config, opts *checkOptions, specs specsource.Source) (*advisor.Advisor, *store.Store, error) {
	client := newClient(cfg)

	if !cmd.Flags().Changed("policy") {
		policy, err := version.ParsePolicy(cfg.Policy)
		if err != nil {
			return nil, nil, err
		}
		opts.policy = policy
	}

	if specs == nil {
		var exceptions map[string]specsource.Exception
		if cfg.Spec.ExceptionsFile != "" {
			var err error
			exceptions, err = specsource.LoadExceptions(cfg.Spec.ExceptionsFile)
			if err != nil {
				return nil, nil, err
			}
		}
		specs = specsource.NewForge(client, cfg.Spec.BaseURL, cfg.Spec.Branch, exceptions)
	}

	records := store.New(cfg.UpstreamPath(), cfg.KnownIssuesPath())

	ac := advisor.Config{
		Store: records,
		Specs: specs,
		Upstream: upstream.Options{
			Client:       client,
			HTTPClient:   client.HTTPClient(),
			Force:        opts.force,
			GitHubToken:  cfg.GitHub.Token,
			GitHubAPIURL: cfg.GitHub.BaseURL,
		},
		Policy: opts.policy,
		Push:   opts.push,
	}

	if opts.push {
		token, err := cfg.GiteeToken()
		if err != nil {
			return nil, nil, fmt.Errorf("--push needs a gitee token: %w", err)
		}
		ac.Notifier = notify.NewGitee(client, cfg.Gitee.BaseURL, cfg.Gitee.Owner, token)
	}

	return advisor.New(ac), records, nil
}
