// Package digest classifies fetched repository activity into daily buckets
// and turns them into per-repository and consolidated feeds.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"repo-digest/internal/domain/entity"
	"repo-digest/internal/observability/logging"
	"repo-digest/internal/observability/metrics"
	"repo-digest/internal/observability/tracing"
	"repo-digest/internal/usecase/fetch"
)

// DefaultParallelism is how many repositories are processed at once.
const DefaultParallelism = 4

// ErrUnknownKind is returned for a DigestKind the service cannot build.
var ErrUnknownKind = errors.New("unknown digest kind")

// errSkipped marks targets never started because the run was aborted.
var errSkipped = errors.New("skipped after run aborted")

// Fetcher retrieves raw activity. *fetch.Service implements it.
type Fetcher interface {
	FetchActivity(ctx context.Context, target entity.RepoTarget) (entity.ActivitySnapshot, error)
	FetchReleases(ctx context.Context, target entity.RepoTarget) ([]entity.Release, error)
	FetchAll(ctx context.Context, target entity.RepoTarget) (fetch.Snapshot, error)
}

// FeedWriter persists a feed under a slash-separated relative name and
// returns the number of bytes written.
type FeedWriter interface {
	WriteFeed(ctx context.Context, name string, feed entity.Feed) (int, error)
}

// Config controls how a run is scheduled and how failures propagate.
type Config struct {
	// Parallelism bounds concurrently processed repositories.
	Parallelism int
	// FailFast aborts the whole run on the first failed repository and
	// skips the consolidated feed. Otherwise failures are isolated.
	FailFast bool
}

// TargetResult is the outcome of one repository for one digest kind.
type TargetResult struct {
	Target entity.RepoTarget
	Feed   entity.Feed
	Entry  *entity.DigestEntry // nil when the repository had no activity
	Err    error
}

// Result is the outcome of one digest kind over all targets.
type Result struct {
	Kind         entity.DigestKind
	Window       entity.TimeWindow
	Now          time.Time
	Targets      []TargetResult // input order
	Consolidated *entity.Feed   // nil when the run was aborted
	Aborted      bool
	Duration     time.Duration
}

// Failures returns the failed targets in input order.
func (r *Result) Failures() []TargetResult {
	var failed []TargetResult
	for _, t := range r.Targets {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Entries returns how many entries the consolidated feed holds.
func (r *Result) Entries() int {
	if r.Consolidated == nil {
		return 0
	}
	return len(r.Consolidated.Entries)
}

// Summary condenses the result for logging and metrics.
func (r *Result) Summary() metrics.RunSummary {
	failed := len(r.Failures())
	return metrics.RunSummary{
		Kind:      string(r.Kind),
		Targets:   len(r.Targets),
		Succeeded: len(r.Targets) - failed,
		Failed:    failed,
		Entries:   r.Entries(),
		Aborted:   r.Aborted,
		Duration:  r.Duration,
	}
}

// Service runs digests.
type Service struct {
	fetcher    Fetcher
	writer     FeedWriter
	classifier Classifier
	aggregator Aggregator
	cfg        Config
}

// NewService creates a digest Service.
//
// Parameters:
//   - fetcher: Retrieves raw activity per repository
//   - writer: Persists feeds (can be nil to only compute results)
//   - classifier: Buckets activity into the window
//   - aggregator: Builds entries and feeds
//   - cfg: Parallelism and failure propagation
func NewService(fetcher Fetcher, writer FeedWriter, classifier Classifier, aggregator Aggregator, cfg Config) *Service {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = DefaultParallelism
	}
	return &Service{
		fetcher:    fetcher,
		writer:     writer,
		classifier: classifier,
		aggregator: aggregator,
		cfg:        cfg,
	}
}

// Run produces one digest kind for targets. See RunAll.
func (s *Service) Run(ctx context.Context, kind entity.DigestKind, targets []entity.RepoTarget, now time.Time) (*Result, error) {
	results, err := s.RunAll(ctx, []entity.DigestKind{kind}, targets, now)
	if len(results) == 0 {
		return nil, err
	}
	return results[0], err
}

// RunAll produces every kind in kinds for targets against the window
// derived from now. Each repository is fetched once for all kinds.
//
// Per-repository feeds are written as repositories finish. Consolidated
// feeds hold entries in target input order. With a single kind, files are
// named "{owner}_{name}.atom" and "{kind}.atom"; with several kinds each
// kind's files go under a "{kind}/" prefix.
//
// Without FailFast a failed repository is logged, its feed is left
// untouched, the consolidated feed is still written, and the returned error
// lists every failure. With FailFast the first failure cancels the run and
// no consolidated feed is written.
func (s *Service) RunAll(ctx context.Context, kinds []entity.DigestKind, targets []entity.RepoTarget, now time.Time) ([]*Result, error) {
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}

	start := time.Now()
	window := entity.YesterdayWindow(now)
	attrs := []attribute.KeyValue{
		attribute.Int("digest.targets", len(targets)),
		attribute.String("digest.window", window.Date()),
	}
	if runID := logging.RunIDFromContext(ctx); runID != "" {
		attrs = append(attrs, attribute.String("digest.run_id", runID))
	}
	ctx, span := tracing.GetTracer().Start(ctx, "digest.run", trace.WithAttributes(attrs...))
	defer span.End()

	logger := logging.FromContext(ctx)
	logger.Info("digest run started",
		slog.Any("kinds", kinds),
		slog.Int("targets", len(targets)),
		slog.Time("window_start", window.Start),
		slog.Time("window_end", window.End))

	results := make([]*Result, len(kinds))
	for i, kind := range kinds {
		results[i] = &Result{
			Kind:    kind,
			Window:  window,
			Now:     now,
			Targets: make([]TargetResult, len(targets)),
		}
	}
	nested := len(kinds) > 1

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Parallelism)
	for i, target := range targets {
		eg.Go(func() error {
			var perKind []TargetResult
			if egCtx.Err() != nil {
				perKind = failAll(kinds, target, errSkipped)
			} else {
				perKind = s.processTarget(egCtx, kinds, target, window, now, nested)
			}
			for k := range kinds {
				results[k].Targets[i] = perKind[k]
			}
			if s.cfg.FailFast {
				for _, tr := range perKind {
					if tr.Err != nil {
						return tr.Err
					}
				}
			}
			return nil
		})
	}
	abortErr := eg.Wait()
	if abortErr == nil {
		abortErr = ctx.Err()
	}

	if abortErr != nil {
		for _, r := range results {
			r.Aborted = true
			r.Duration = time.Since(start)
			s.report(ctx, r)
		}
		tracing.RecordError(span, abortErr)
		return results, fmt.Errorf("digest aborted: %w", abortErr)
	}

	var errs []error
	for _, r := range results {
		entries := make([]*entity.DigestEntry, len(r.Targets))
		for i, t := range r.Targets {
			if t.Err != nil {
				errs = append(errs, t.Err)
				continue
			}
			entries[i] = t.Entry
		}
		consolidated := s.aggregator.Consolidate(r.Kind, entries, now)
		r.Consolidated = &consolidated
		if err := s.write(ctx, "consolidated", feedName(r.Kind, r.Kind.FileName(), nested), consolidated); err != nil {
			errs = append(errs, fmt.Errorf("consolidated %s feed: %w", r.Kind, err))
		}
		r.Duration = time.Since(start)
		s.report(ctx, r)
	}

	if len(errs) > 0 {
		err := fmt.Errorf("digest completed with %d failure(s): %w", len(errs), errors.Join(errs...))
		tracing.RecordError(span, err)
		return results, err
	}
	return results, nil
}

// processTarget fetches target once and builds every requested kind.
func (s *Service) processTarget(
	ctx context.Context,
	kinds []entity.DigestKind,
	target entity.RepoTarget,
	window entity.TimeWindow,
	now time.Time,
	nested bool,
) []TargetResult {
	ctx, span := tracing.GetTracer().Start(ctx, "digest.target",
		trace.WithAttributes(attribute.String("repo.target", target.String())))
	defer span.End()

	logger := logging.FromContext(ctx).With(slog.String("target", target.String()))
	ctx = logging.WithLogger(ctx, logger)

	snapshot, err := s.fetch(ctx, kinds, target)
	if err != nil {
		tracing.RecordError(span, err)
		logger.Error("fetch failed", slog.String("error", logging.SanitizeError(err)))
		return failAll(kinds, target, err)
	}

	out := make([]TargetResult, len(kinds))
	for i, kind := range kinds {
		entry, err := s.build(kind, target, snapshot, window, now)
		if err != nil {
			out[i] = TargetResult{Target: target, Err: &entity.TargetError{Target: target.String(), Err: err}}
			continue
		}
		feed := s.aggregator.TargetFeed(kind, target, entry, now)
		if err := s.write(ctx, "target", feedName(kind, target.FileName(), nested), feed); err != nil {
			out[i] = TargetResult{Target: target, Err: &entity.TargetError{Target: target.String(), Err: err}}
			continue
		}
		out[i] = TargetResult{Target: target, Feed: feed, Entry: entry}

		if entry == nil {
			logger.Info("the repository has no changes", slog.String("kind", string(kind)))
		} else {
			logger.Info("digest entry built", slog.String("kind", string(kind)), slog.String("entry_id", entry.ID))
		}
	}
	for _, tr := range out {
		if tr.Err != nil {
			tracing.RecordError(span, tr.Err)
			logger.Error("target failed", slog.String("error", logging.SanitizeError(tr.Err)))
		}
	}
	return out
}

// fetch retrieves only what kinds need, in one concurrent pass when both
// collections are needed.
func (s *Service) fetch(ctx context.Context, kinds []entity.DigestKind, target entity.RepoTarget) (fetch.Snapshot, error) {
	var needActivity, needReleases bool
	for _, kind := range kinds {
		switch kind {
		case entity.KindIssuesAndPullRequests:
			needActivity = true
		case entity.KindReleases:
			needReleases = true
		}
	}

	switch {
	case needActivity && needReleases:
		return s.fetcher.FetchAll(ctx, target)
	case needActivity:
		activity, err := s.fetcher.FetchActivity(ctx, target)
		return fetch.Snapshot{Activity: activity}, err
	case needReleases:
		releases, err := s.fetcher.FetchReleases(ctx, target)
		return fetch.Snapshot{Releases: releases}, err
	}
	return fetch.Snapshot{}, nil
}

func (s *Service) build(kind entity.DigestKind, target entity.RepoTarget, snapshot fetch.Snapshot, window entity.TimeWindow, now time.Time) (*entity.DigestEntry, error) {
	switch kind {
	case entity.KindIssuesAndPullRequests:
		buckets := s.classifier.ClassifyActivity(snapshot.Activity, window)
		for name, n := range buckets.Sizes() {
			metrics.RecordBucketItems(name, n)
		}
		return s.aggregator.ActivityEntry(target, buckets, window, now)
	case entity.KindReleases:
		published := s.classifier.ClassifyReleases(snapshot.Releases, window)
		metrics.RecordBucketItems("releases_published", len(published))
		return s.aggregator.ReleasesEntry(target, published, window, now)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (s *Service) write(ctx context.Context, scope, name string, feed entity.Feed) error {
	if s.writer == nil {
		return nil
	}
	n, err := s.writer.WriteFeed(ctx, name, feed)
	metrics.RecordFeedWrite(scope, n, err)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// report logs the run summary and exports it as metrics.
func (s *Service) report(ctx context.Context, r *Result) {
	summary := r.Summary()
	metrics.RecordDigestRun(summary, r.Now)

	logger := logging.FromContext(ctx)
	attrs := []any{
		slog.String("kind", summary.Kind),
		slog.Int("targets", summary.Targets),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("entries", summary.Entries),
		slog.Bool("aborted", summary.Aborted),
		slog.Duration("duration", summary.Duration),
	}
	if summary.Failed > 0 || summary.Aborted {
		logger.Warn("digest run finished with failures", attrs...)
		return
	}
	logger.Info("digest run completed", attrs...)
}

func failAll(kinds []entity.DigestKind, target entity.RepoTarget, err error) []TargetResult {
	out := make([]TargetResult, len(kinds))
	for i := range kinds {
		out[i] = TargetResult{Target: target, Err: &entity.TargetError{Target: target.String(), Err: err}}
	}
	return out
}

// feedName places name under a per-kind directory when several kinds share
// one output directory.
func feedName(kind entity.DigestKind, name string, nested bool) string {
	if nested {
		return path.Join(string(kind), name)
	}
	return name
}
