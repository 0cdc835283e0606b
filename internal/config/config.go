// Package config loads settings from an optional YAML file, environment
// variables prefixed with UPGRADE_ADVISOR_, and built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/utils"
	"github.com/ralt/upgrade-advisor/internal/version"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "UPGRADE_ADVISOR"

// Config holds the full application configuration.
type Config struct {
	DataDir        string `mapstructure:"data_dir"`
	UpstreamDir    string `mapstructure:"upstream_dir"`
	KnownIssuesDir string `mapstructure:"known_issues_dir"`
	Policy         string `mapstructure:"policy"`

	GitHub GitHubConfig `mapstructure:"github"`
	Gitee  GiteeConfig  `mapstructure:"gitee"`
	Spec   SpecConfig   `mapstructure:"spec"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Scan   ScanConfig   `mapstructure:"scan"`
}

// GitHubConfig configures the GitHub API client.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// GiteeConfig configures issue filing.
type GiteeConfig struct {
	Owner     string `mapstructure:"owner"`
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token_file"`
}

// SpecConfig configures where spec files are downloaded from.
type SpecConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Branch         string `mapstructure:"branch"`
	ExceptionsFile string `mapstructure:"exceptions_file"`
}

// HTTPConfig configures the upstream HTTP client.
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// ScanConfig configures the scan command.
type ScanConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from file and environment. An empty path looks
// for upgrade-advisor.yaml in the working directory, which may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("upgrade-advisor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("data_dir", ".")
	v.SetDefault("upstream_dir", "upstream-info")
	v.SetDefault("known_issues_dir", "known-issues")
	v.SetDefault("policy", version.PolicyLatestStable.String())
	v.SetDefault("github.base_url", "")
	v.SetDefault("gitee.owner", "src-openeuler")
	v.SetDefault("gitee.base_url", "https://gitee.com")
	v.SetDefault("gitee.token", "")
	v.SetDefault("gitee.token_file", "~/.gitee_token.json")
	v.SetDefault("spec.base_url", "https://gitee.com/src-openeuler")
	v.SetDefault("spec.branch", "master")
	v.SetDefault("spec.exceptions_file", "")
	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("http.max_retries", 9)
	v.SetDefault("http.base_delay", 3*time.Second)
	v.SetDefault("http.rate_limit", 0.0)
	v.SetDefault("http.user_agent", "upgrade-advisor/1.0")
	v.SetDefault("scan.concurrency", 4)

	// Read config file (optional when not named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("reading config: %w", err)}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("decoding config: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := version.ParsePolicy(c.Policy); err != nil {
		return &models.AdvisorError{Type: models.ErrInvalidConfig, Err: err}
	}
	if c.Scan.Concurrency < 1 {
		return &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("scan.concurrency must be at least 1, got %d", c.Scan.Concurrency)}
	}
	if c.HTTP.MaxRetries < 0 {
		return &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("http.max_retries must not be negative, got %d", c.HTTP.MaxRetries)}
	}
	return nil
}

// UpstreamPath returns the directory of healthy project records
func (c *Config) UpstreamPath() string {
	return c.resolve(c.UpstreamDir)
}

// KnownIssuesPath returns the directory of flagged project records
func (c *Config) KnownIssuesPath() string {
	return c.resolve(c.KnownIssuesDir)
}

func (c *Config) resolve(dir string) string {
	dir = utils.ExpandHome(dir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(utils.ExpandHome(c.DataDir), dir)
}

// GiteeToken returns the configured token, or the access_token stored in
// the token file
func (c *Config) GiteeToken() (string, error) {
	if c.Gitee.Token != "" {
		return c.Gitee.Token, nil
	}
	if c.Gitee.TokenFile == "" {
		return "", &models.AdvisorError{Type: models.ErrInvalidConfig, Err: errors.New("no gitee token configured")}
	}

	path := utils.ExpandHome(c.Gitee.TokenFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("reading gitee token: %w", err)}
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &token); err != nil {
		return "", &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("parsing %s: %w", path, err)}
	}
	if token.AccessToken == "" {
		return "", &models.AdvisorError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("%s has no access_token", path)}
	}
	return token.AccessToken, nil
}
