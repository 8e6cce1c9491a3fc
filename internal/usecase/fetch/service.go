package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"repo-digest/internal/domain/entity"
	"repo-digest/internal/observability/logging"
	"repo-digest/internal/observability/metrics"
	"repo-digest/internal/observability/tracing"
	"repo-digest/internal/resilience/circuitbreaker"
	"repo-digest/internal/resilience/retry"
)

// Operation names used for metrics labels and span names.
const (
	OperationActivity = "activity"
	OperationReleases = "releases"
)

// ActivityClient performs single round trips against the hosting API.
// *github.Client implements it.
type ActivityClient interface {
	FetchActivity(ctx context.Context, target entity.RepoTarget) (entity.ActivitySnapshot, error)
	FetchReleases(ctx context.Context, target entity.RepoTarget) ([]entity.Release, error)
}

// Snapshot is everything fetched for one repository.
type Snapshot struct {
	Activity entity.ActivitySnapshot
	Releases []entity.Release
}

// Service orchestrates the per-repository retrievals.
type Service struct {
	client  ActivityClient
	breaker *circuitbreaker.CircuitBreaker
	policy  retry.Policy
}

// NewService creates a new fetch Service.
//
// Parameters:
//   - client: Performs the GraphQL round trips
//   - breaker: Guards the endpoint (can be nil to disable)
//   - policy: Retry policy applied to every round trip
//
// Example:
//
//	breaker := circuitbreaker.New(fetch.BreakerConfig())
//	svc := fetch.NewService(githubClient, breaker, retry.DefaultPolicy())
func NewService(client ActivityClient, breaker *circuitbreaker.CircuitBreaker, policy retry.Policy) *Service {
	return &Service{
		client:  client,
		breaker: breaker,
		policy:  policy,
	}
}

// FetchActivity retrieves the six issue and pull request collections for target.
func (s *Service) FetchActivity(ctx context.Context, target entity.RepoTarget) (entity.ActivitySnapshot, error) {
	if s.client == nil {
		return entity.ActivitySnapshot{}, ErrNoClient
	}
	return call(ctx, s, OperationActivity, target, s.client.FetchActivity)
}

// FetchReleases retrieves the most recent releases for target.
func (s *Service) FetchReleases(ctx context.Context, target entity.RepoTarget) ([]entity.Release, error) {
	if s.client == nil {
		return nil, ErrNoClient
	}
	return call(ctx, s, OperationReleases, target, s.client.FetchReleases)
}

// FetchAll runs both retrievals for target concurrently. The first failure
// cancels the other retrieval and is returned.
func (s *Service) FetchAll(ctx context.Context, target entity.RepoTarget) (Snapshot, error) {
	var snapshot Snapshot
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		activity, err := s.FetchActivity(egCtx, target)
		if err != nil {
			return err
		}
		snapshot.Activity = activity
		return nil
	})
	eg.Go(func() error {
		releases, err := s.FetchReleases(egCtx, target)
		if err != nil {
			return err
		}
		snapshot.Releases = releases
		return nil
	})

	if err := eg.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// call runs one retrieval through the retry policy and the circuit breaker.
// Each attempt is one round trip; only the successful attempt's result is
// returned.
func call[T any](
	ctx context.Context,
	s *Service,
	operation string,
	target entity.RepoTarget,
	fn func(context.Context, entity.RepoTarget) (T, error),
) (T, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "fetch."+operation,
		trace.WithAttributes(
			attribute.String("repo.target", target.String()),
			attribute.String("fetch.operation", operation),
		))
	defer span.End()

	logger := logging.FromContext(ctx).With(
		slog.String("target", target.String()),
		slog.String("operation", operation))

	policy := s.policy
	policy.Logger = logger
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.RecordGitHubRetry(operation)
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("retry.attempt", attempt),
			attribute.String("retry.delay", delay.String()),
			attribute.String("error", logging.SanitizeError(err))))
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}

	attempts := 0
	result, err := retry.Do(ctx, policy, func(ctx context.Context) (T, error) {
		attempts++
		start := time.Now()
		v, err := guard(ctx, s.breaker, target, fn)
		metrics.RecordGitHubRequest(operation, outcome(err), time.Since(start))
		return v, err
	})
	span.SetAttributes(attribute.Int("fetch.attempts", attempts))
	if err != nil {
		tracing.RecordError(span, err)
		var zero T
		return zero, fmt.Errorf("fetch %s: %w", operation, err)
	}
	return result, nil
}

// guard runs fn through the circuit breaker when one is configured.
func guard[T any](
	ctx context.Context,
	breaker *circuitbreaker.CircuitBreaker,
	target entity.RepoTarget,
	fn func(context.Context, entity.RepoTarget) (T, error),
) (T, error) {
	if breaker == nil {
		return fn(ctx, target)
	}
	return circuitbreaker.Call(breaker, func() (T, error) {
		return fn(ctx, target)
	})
}

func outcome(err error) string {
	if circuitbreaker.IsRejected(err) {
		return metrics.OutcomeRejected
	}
	return metrics.Outcome(err)
}
