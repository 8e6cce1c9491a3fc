// Package config loads the digest configuration: an optional YAML file
// followed by REPODIGEST_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"repo-digest/internal/domain/entity"
	pkgconfig "repo-digest/internal/pkg/config"
)

// Environment variables that override file values.
const (
	EnvEndpoint          = "REPODIGEST_GITHUB_ENDPOINT"
	EnvTokenEnv          = "REPODIGEST_TOKEN_ENV"
	EnvRequestTimeout    = "REPODIGEST_REQUEST_TIMEOUT"
	EnvRequestsPerSecond = "REPODIGEST_REQUESTS_PER_SECOND"
	EnvBurst             = "REPODIGEST_BURST"
	EnvItemLimit         = "REPODIGEST_ITEM_LIMIT"
	EnvReleaseLimit      = "REPODIGEST_RELEASE_LIMIT"
	EnvLabelLimit        = "REPODIGEST_LABEL_LIMIT"
	EnvMarker            = "REPODIGEST_MARKER"
	EnvFeedBaseTitle     = "REPODIGEST_FEED_BASE_TITLE"
	EnvSiteURL           = "REPODIGEST_SITE_URL"
	EnvParallelism       = "REPODIGEST_PARALLELISM"
	EnvFailFast          = "REPODIGEST_FAIL_FAST"
	EnvOutputDir         = "REPODIGEST_OUTPUT_DIR"
	EnvTargets           = "REPODIGEST_TARGETS"
	EnvMaxAttempts       = "REPODIGEST_RETRY_MAX_ATTEMPTS"
	EnvBaseDelay         = "REPODIGEST_RETRY_BASE_DELAY"
	EnvJitter            = "REPODIGEST_RETRY_JITTER"
	EnvMaxDelay          = "REPODIGEST_RETRY_MAX_DELAY"
)

// DigestConfig is the complete run configuration.
//
// Example file:
//
//	github:
//	  token_env: GITHUB_TOKEN
//	  requests_per_second: 2
//	digest:
//	  marker: "Update dependencies from"
//	  parallelism: 4
//	retry:
//	  max_attempts: 10
//	  base_delay: 1s
//	targets:
//	  - dotnet/runtime
type DigestConfig struct {
	GitHub  GitHubConfig   `yaml:"github"`
	Digest  DigestSettings `yaml:"digest"`
	Retry   RetryConfig    `yaml:"retry"`
	Targets []string       `yaml:"targets"`
}

// GitHubConfig configures the GraphQL client.
type GitHubConfig struct {
	// Endpoint is the GraphQL URL. Default: https://api.github.com/graphql
	Endpoint string `yaml:"endpoint"`
	// TokenEnv names the environment variable holding the token. Default: GITHUB_TOKEN
	TokenEnv string `yaml:"token_env"`
	// RequestTimeout bounds one HTTP round trip. Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RequestsPerSecond is the client-side rate limit. 0 disables it. Default: 2
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// Burst is the rate limiter bucket size. Default: 4
	Burst int `yaml:"burst"`
	// ItemLimit is the top-K per issue and pull request collection. Default: 100
	ItemLimit int `yaml:"item_limit"`
	// ReleaseLimit is the top-K of recent releases. Default: 10
	ReleaseLimit int `yaml:"release_limit"`
	// LabelLimit is the number of labels fetched per item. Default: 10
	LabelLimit int `yaml:"label_limit"`
}

// DigestSettings configures classification, feed headers and the driver.
type DigestSettings struct {
	// Marker excludes pull requests whose title contains it.
	Marker string `yaml:"marker"`
	// FeedBaseTitle prefixes consolidated feed titles.
	FeedBaseTitle string `yaml:"feed_base_title"`
	// SiteURL is the link and id of consolidated feeds.
	SiteURL string `yaml:"site_url"`
	// Parallelism bounds concurrently processed repositories. Default: 4
	Parallelism int `yaml:"parallelism"`
	// FailFast aborts the run on the first failed repository.
	FailFast bool `yaml:"fail_fast"`
	// OutputDir receives the feed files.
	OutputDir string `yaml:"output_dir"`
}

// RetryConfig configures retries of transient GitHub failures.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Default: 10
	MaxAttempts int `yaml:"max_attempts"`
	// BaseDelay is scaled by 2^k before attempt k. Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`
	// Jitter bounds the random delay added to each wait. Default: 1s
	Jitter time.Duration `yaml:"jitter"`
	// MaxDelay caps the exponential part. 0 leaves it uncapped.
	MaxDelay time.Duration `yaml:"max_delay"`
}

// DefaultDigestConfig returns the built-in defaults.
func DefaultDigestConfig() DigestConfig {
	return DigestConfig{
		GitHub: GitHubConfig{
			Endpoint:          "https://api.github.com/graphql",
			TokenEnv:          "GITHUB_TOKEN",
			RequestTimeout:    30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
			ItemLimit:         100,
			ReleaseLimit:      10,
			LabelLimit:        10,
		},
		Digest: DigestSettings{
			Marker:        "Update dependencies from",
			FeedBaseTitle: "GitHub",
			SiteURL:       "https://github.com",
			Parallelism:   4,
			OutputDir:     ".",
		},
		Retry: RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   time.Second,
			Jitter:      time.Second,
		},
	}
}

// LoadDigestConfig reads path (skipped when empty) over the defaults, then
// applies environment overrides. Environment values are fail-open: invalid
// ones keep the file value and are reported through tracker. File values
// are strict: unknown keys or invalid values are errors.
func LoadDigestConfig(path string, tracker *pkgconfig.Tracker) (*DigestConfig, error) {
	cfg := DefaultDigestConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	if tracker == nil {
		tracker = &pkgconfig.Tracker{}
	}
	cfg.applyEnv(tracker)
	tracker.Finish()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *DigestConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *DigestConfig) applyEnv(t *pkgconfig.Tracker) {
	positiveInt := func(max int) func(int) error {
		return func(v int) error { return pkgconfig.ValidateIntRange(v, 1, max) }
	}

	c.GitHub.Endpoint = pkgconfig.Track(t, "github_endpoint",
		pkgconfig.LoadEnvWithFallback(EnvEndpoint, c.GitHub.Endpoint, pkgconfig.ValidateHTTPURL))
	c.GitHub.TokenEnv = pkgconfig.Track(t, "token_env",
		pkgconfig.LoadEnvWithFallback(EnvTokenEnv, c.GitHub.TokenEnv, pkgconfig.ValidateEnvName))
	c.GitHub.RequestTimeout = pkgconfig.Track(t, "request_timeout",
		pkgconfig.LoadEnvDuration(EnvRequestTimeout, c.GitHub.RequestTimeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Second, 10*time.Minute)
		}))
	c.GitHub.RequestsPerSecond = pkgconfig.Track(t, "requests_per_second",
		pkgconfig.LoadEnvFloat(EnvRequestsPerSecond, c.GitHub.RequestsPerSecond, pkgconfig.ValidateNonNegativeFloat))
	c.GitHub.Burst = pkgconfig.Track(t, "burst",
		pkgconfig.LoadEnvInt(EnvBurst, c.GitHub.Burst, positiveInt(100)))
	c.GitHub.ItemLimit = pkgconfig.Track(t, "item_limit",
		pkgconfig.LoadEnvInt(EnvItemLimit, c.GitHub.ItemLimit, positiveInt(100)))
	c.GitHub.ReleaseLimit = pkgconfig.Track(t, "release_limit",
		pkgconfig.LoadEnvInt(EnvReleaseLimit, c.GitHub.ReleaseLimit, positiveInt(100)))
	c.GitHub.LabelLimit = pkgconfig.Track(t, "label_limit",
		pkgconfig.LoadEnvInt(EnvLabelLimit, c.GitHub.LabelLimit, positiveInt(100)))

	c.Digest.Marker = pkgconfig.LoadEnvString(EnvMarker, c.Digest.Marker)
	c.Digest.FeedBaseTitle = pkgconfig.LoadEnvString(EnvFeedBaseTitle, c.Digest.FeedBaseTitle)
	c.Digest.SiteURL = pkgconfig.Track(t, "site_url",
		pkgconfig.LoadEnvWithFallback(EnvSiteURL, c.Digest.SiteURL, pkgconfig.ValidateHTTPURL))
	c.Digest.Parallelism = pkgconfig.Track(t, "parallelism",
		pkgconfig.LoadEnvInt(EnvParallelism, c.Digest.Parallelism, positiveInt(64)))
	c.Digest.FailFast = pkgconfig.Track(t, "fail_fast",
		pkgconfig.LoadEnvBool(EnvFailFast, c.Digest.FailFast))
	c.Digest.OutputDir = pkgconfig.LoadEnvString(EnvOutputDir, c.Digest.OutputDir)

	c.Retry.MaxAttempts = pkgconfig.Track(t, "retry_max_attempts",
		pkgconfig.LoadEnvInt(EnvMaxAttempts, c.Retry.MaxAttempts, positiveInt(20)))
	c.Retry.BaseDelay = pkgconfig.Track(t, "retry_base_delay",
		pkgconfig.LoadEnvDuration(EnvBaseDelay, c.Retry.BaseDelay, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Millisecond, time.Minute)
		}))
	c.Retry.Jitter = pkgconfig.Track(t, "retry_jitter",
		pkgconfig.LoadEnvDuration(EnvJitter, c.Retry.Jitter, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, 0, time.Minute)
		}))
	c.Retry.MaxDelay = pkgconfig.Track(t, "retry_max_delay",
		pkgconfig.LoadEnvDuration(EnvMaxDelay, c.Retry.MaxDelay, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, 0, time.Hour)
		}))

	c.Targets = pkgconfig.LoadEnvList(EnvTargets, c.Targets)
}

// Validate checks every field and returns all problems joined.
func (c *DigestConfig) Validate() error {
	var errs []error
	check := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	check("github.endpoint", pkgconfig.ValidateHTTPURL(c.GitHub.Endpoint))
	check("github.token_env", pkgconfig.ValidateEnvName(c.GitHub.TokenEnv))
	check("github.request_timeout", pkgconfig.ValidatePositiveDuration(c.GitHub.RequestTimeout))
	check("github.requests_per_second", pkgconfig.ValidateNonNegativeFloat(c.GitHub.RequestsPerSecond))
	check("github.burst", pkgconfig.ValidateIntRange(c.GitHub.Burst, 1, 100))
	check("github.item_limit", pkgconfig.ValidateIntRange(c.GitHub.ItemLimit, 1, 100))
	check("github.release_limit", pkgconfig.ValidateIntRange(c.GitHub.ReleaseLimit, 1, 100))
	check("github.label_limit", pkgconfig.ValidateIntRange(c.GitHub.LabelLimit, 1, 100))

	check("digest.site_url", pkgconfig.ValidateHTTPURL(c.Digest.SiteURL))
	check("digest.parallelism", pkgconfig.ValidateIntRange(c.Digest.Parallelism, 1, 64))
	if strings.TrimSpace(c.Digest.FeedBaseTitle) == "" {
		check("digest.feed_base_title", errors.New("cannot be empty"))
	}
	if c.Digest.OutputDir == "" {
		check("digest.output_dir", errors.New("cannot be empty"))
	}

	check("retry.max_attempts", pkgconfig.ValidateIntRange(c.Retry.MaxAttempts, 1, 20))
	check("retry.base_delay", pkgconfig.ValidatePositiveDuration(c.Retry.BaseDelay))
	if c.Retry.Jitter < 0 {
		check("retry.jitter", fmt.Errorf("duration must not be negative, got %v", c.Retry.Jitter))
	}
	if c.Retry.MaxDelay < 0 {
		check("retry.max_delay", fmt.Errorf("duration must not be negative, got %v", c.Retry.MaxDelay))
	}

	if _, err := entity.ParseRepoTargets(c.Targets); err != nil {
		check("targets", err)
	}

	return errors.Join(errs...)
}

// Token reads the credential from the configured environment variable.
// An empty value is an entity.ErrAuth failure.
func (c *DigestConfig) Token() (string, error) {
	token := strings.TrimSpace(os.Getenv(c.GitHub.TokenEnv))
	if token == "" {
		return "", fmt.Errorf("environment variable %s is empty: %w", c.GitHub.TokenEnv, entity.ErrAuth)
	}
	return token, nil
}
