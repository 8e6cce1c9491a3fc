package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"repo-digest/internal/config"
	"repo-digest/internal/domain/entity"
	"repo-digest/internal/infra/feed"
	"repo-digest/internal/infra/github"
	"repo-digest/internal/observability/logging"
	pkgconfig "repo-digest/internal/pkg/config"
	"repo-digest/internal/resilience/circuitbreaker"
	"repo-digest/internal/resilience/retry"
	"repo-digest/internal/usecase/digest"
	fetchUC "repo-digest/internal/usecase/fetch"
)

// errNoTargets is returned when neither arguments nor configuration name a
// repository.
var errNoTargets = errors.New("no repositories given: pass owner/name arguments or set targets in the config")

// options carries flag values shared by every subcommand.
type options struct {
	configPath  string
	outputDir   string
	failFast    bool
	parallelism int
	marker      string

	logger *slog.Logger
	clock  func() time.Time
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "repodigest",
		Short:         "Daily Atom digests of GitHub releases, issues and pull requests",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", ".", "directory receiving the feed files")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "abort the whole run on the first failed repository")
	flags.IntVarP(&opts.parallelism, "parallelism", "p", digest.DefaultParallelism, "repositories processed concurrently")
	flags.StringVar(&opts.marker, "marker", digest.DefaultMarker, "exclude pull requests whose title contains this text")

	root.AddCommand(digestCmd(opts, entity.KindReleases,
		"Digest releases published during the previous UTC day"))
	root.AddCommand(digestCmd(opts, entity.KindIssuesAndPullRequests,
		"Digest issues and pull requests created, closed, merged or updated during the previous UTC day"))
	root.AddCommand(workerCmd(opts))

	return root
}

func digestCmd(opts *options, kind entity.DigestKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " [owner/name...]",
		Short: short,
		Long: short + `.

Writes one feed per repository ({owner}_{name}.atom) and a consolidated
` + kind.FileName() + ` into the output directory. Repositories without
activity get a feed with no entries. A failed repository does not stop the
others unless --fail-fast is set; the command exits non-zero either way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, &pkgconfig.Tracker{Logger: opts.logger})
			if err != nil {
				return err
			}
			targets, err := resolveTargets(args, cfg)
			if err != nil {
				return err
			}
			svc, err := newDigestService(cfg, opts.logger)
			if err != nil {
				return err
			}

			ctx, _ := logging.WithRunID(cmd.Context(), opts.logger)
			result, err := svc.Run(ctx, kind, targets, opts.clock())
			if result != nil {
				printSummary(cmd, cfg.Digest.OutputDir, result)
			}
			return err
		},
	}
}

// loadConfig layers defaults, the config file, REPODIGEST_* variables and
// finally explicitly set flags.
func loadConfig(cmd *cobra.Command, opts *options, tracker *pkgconfig.Tracker) (*config.DigestConfig, error) {
	cfg, err := config.LoadDigestConfig(opts.configPath, tracker)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Digest.OutputDir = opts.outputDir
	}
	if flags.Changed("fail-fast") {
		cfg.Digest.FailFast = opts.failFast
	}
	if flags.Changed("parallelism") {
		cfg.Digest.Parallelism = opts.parallelism
	}
	if flags.Changed("marker") {
		cfg.Digest.Marker = opts.marker
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveTargets parses every target before any network call is made.
func resolveTargets(args []string, cfg *config.DigestConfig) ([]entity.RepoTarget, error) {
	raws := args
	if len(raws) == 0 {
		raws = cfg.Targets
	}
	if len(raws) == 0 {
		return nil, errNoTargets
	}
	return entity.ParseRepoTargets(raws)
}

func newDigestService(cfg *config.DigestConfig, logger *slog.Logger) (*digest.Service, error) {
	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}

	client, err := github.NewClient(github.Config{
		Endpoint:          cfg.GitHub.Endpoint,
		Token:             token,
		HTTPClient:        newHTTPClient(cfg.GitHub.RequestTimeout),
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
		Limits: github.Limits{
			Items:    cfg.GitHub.ItemLimit,
			Releases: cfg.GitHub.ReleaseLimit,
			Labels:   cfg.GitHub.LabelLimit,
		},
		UserAgent: "repodigest/" + Version,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	fetcher := fetchUC.NewService(client, circuitbreaker.New(fetchUC.BreakerConfig()), retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Jitter:      cfg.Retry.Jitter,
		MaxDelay:    cfg.Retry.MaxDelay,
		Logger:      logger,
	})

	return digest.NewService(
		fetcher,
		feed.NewWriter(cfg.Digest.OutputDir),
		digest.NewClassifier(cfg.Digest.Marker),
		digest.NewAggregator(cfg.Digest.FeedBaseTitle, cfg.Digest.SiteURL),
		digest.Config{
			Parallelism: cfg.Digest.Parallelism,
			FailFast:    cfg.Digest.FailFast,
		},
	), nil
}

// newHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func printSummary(cmd *cobra.Command, dir string, result *digest.Result) {
	summary := result.Summary()
	status := "ok"
	switch {
	case summary.Aborted:
		status = "aborted"
	case summary.Failed > 0:
		status = "partial"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s, %d/%d repositories, %d entries, output %s\n",
		result.Kind, status, summary.Succeeded, summary.Targets, summary.Entries, dir)
	for _, failed := range result.Failures() {
		fmt.Fprintf(out, "  %s: %s\n", failed.Target, failureReason(failed.Err))
	}
}

func failureReason(err error) string {
	switch {
	case github.IsNotFound(err):
		return "repository not found"
	case errors.Is(err, entity.ErrAuth):
		return "authentication failed"
	}
	return logging.SanitizeError(err)
}
