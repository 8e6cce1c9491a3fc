package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"repo-digest/internal/domain/entity"
	"repo-digest/internal/infra/github"
	"repo-digest/internal/resilience/circuitbreaker"
	"repo-digest/internal/resilience/retry"
	fetchUC "repo-digest/internal/usecase/fetch"
)

/* ───────── test doubles ───────── */

var target = entity.RepoTarget{Owner: "octo", Name: "hello"}

// scriptedClient returns the scripted errors in order, then succeeds.
type scriptedClient struct {
	mu             sync.Mutex
	activityErrs   []error
	releaseErrs    []error
	activityCalls  int
	releaseCalls   int
	activity       entity.ActivitySnapshot
	releases       []entity.Release
	blockReleases  bool
	releasesCancel error
}

func (c *scriptedClient) FetchActivity(ctx context.Context, _ entity.RepoTarget) (entity.ActivitySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activityCalls++
	if len(c.activityErrs) > 0 {
		err := c.activityErrs[0]
		c.activityErrs = c.activityErrs[1:]
		return entity.ActivitySnapshot{}, err
	}
	return c.activity, nil
}

func (c *scriptedClient) FetchReleases(ctx context.Context, _ entity.RepoTarget) ([]entity.Release, error) {
	c.mu.Lock()
	c.releaseCalls++
	block := c.blockReleases
	var err error
	if len(c.releaseErrs) > 0 {
		err = c.releaseErrs[0]
		c.releaseErrs = c.releaseErrs[1:]
	}
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		c.mu.Lock()
		c.releasesCancel = ctx.Err()
		c.mu.Unlock()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return c.releases, nil
}

func badGateway() error {
	return &github.APIError{StatusCode: http.StatusBadGateway, Message: "Bad Gateway"}
}

func fastPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
	}
}

func sampleSnapshot() entity.ActivitySnapshot {
	return entity.ActivitySnapshot{
		OpenIssuesByCreated: []entity.Issue{{ID: "I_1", Title: "Crash", Number: 1}},
	}
}

/* ───────── tests ───────── */

func TestFetchActivity_RetriesTransientFailures(t *testing.T) {
	client := &scriptedClient{
		activityErrs: []error{badGateway(), badGateway(), badGateway()},
		activity:     sampleSnapshot(),
	}

	var retried []int
	policy := fastPolicy(10)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, entity.ErrTransient)
	}

	svc := fetchUC.NewService(client, nil, policy)
	snapshot, err := svc.FetchActivity(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, 4, client.activityCalls, "three failures then one success")
	assert.Equal(t, []int{1, 2, 3}, retried)
	assert.Equal(t, sampleSnapshot(), snapshot, "exactly the successful attempt's result is returned")
}

func TestFetchActivity_AuthFailureIsNotRetried(t *testing.T) {
	client := &scriptedClient{
		activityErrs: []error{&github.APIError{StatusCode: http.StatusUnauthorized, Message: "Bad credentials"}},
	}

	svc := fetchUC.NewService(client, nil, fastPolicy(10))
	_, err := svc.FetchActivity(context.Background(), target)

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrAuth)
	assert.Equal(t, 1, client.activityCalls)
	assert.Contains(t, err.Error(), "fetch activity")
}

func TestFetchReleases_QueryFailureIsNotRetried(t *testing.T) {
	client := &scriptedClient{
		releaseErrs: []error{&github.GraphQLError{Errors: []github.GraphQLErrorItem{{Type: "NOT_FOUND", Message: "no such repository"}}}},
	}

	svc := fetchUC.NewService(client, nil, fastPolicy(10))
	_, err := svc.FetchReleases(context.Background(), target)

	assert.ErrorIs(t, err, entity.ErrQuery)
	assert.True(t, github.IsNotFound(err))
	assert.Equal(t, 1, client.releaseCalls)
}

func TestFetchReleases_Exhaustion(t *testing.T) {
	client := &scriptedClient{
		releaseErrs: []error{badGateway(), badGateway(), badGateway(), badGateway()},
	}

	svc := fetchUC.NewService(client, nil, fastPolicy(3))
	_, err := svc.FetchReleases(context.Background(), target)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.ErrorIs(t, err, entity.ErrTransient)
	assert.Equal(t, 3, client.releaseCalls)
}

func TestFetchAll(t *testing.T) {
	releases := []entity.Release{{ID: "R_1", TagName: "v1.0.0"}}
	client := &scriptedClient{activity: sampleSnapshot(), releases: releases}

	svc := fetchUC.NewService(client, nil, fastPolicy(3))
	snapshot, err := svc.FetchAll(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), snapshot.Activity)
	assert.Equal(t, releases, snapshot.Releases)
}

func TestFetchAll_FailureCancelsSibling(t *testing.T) {
	client := &scriptedClient{
		activityErrs:  []error{&github.APIError{StatusCode: http.StatusUnauthorized, Message: "Bad credentials"}},
		blockReleases: true,
	}

	svc := fetchUC.NewService(client, nil, fastPolicy(3))
	_, err := svc.FetchAll(context.Background(), target)

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrAuth)
	assert.ErrorIs(t, client.releasesCancel, context.Canceled)
}

func TestFetch_NoClient(t *testing.T) {
	svc := fetchUC.NewService(nil, nil, fastPolicy(1))

	_, err := svc.FetchActivity(context.Background(), target)
	assert.ErrorIs(t, err, fetchUC.ErrNoClient)

	_, err = svc.FetchReleases(context.Background(), target)
	assert.ErrorIs(t, err, fetchUC.ErrNoClient)
}

func TestFetch_BreakerRejectionIsRetried(t *testing.T) {
	cfg := fetchUC.BreakerConfig()
	cfg.MinRequests = 1
	cfg.FailureThreshold = 0.5
	cfg.Timeout = 5 * time.Millisecond
	breaker := circuitbreaker.New(cfg)

	client := &scriptedClient{
		releaseErrs: []error{badGateway()},
		releases:    []entity.Release{{ID: "R_1"}},
	}

	policy := retry.Policy{MaxAttempts: 10, BaseDelay: 2 * time.Millisecond}
	svc := fetchUC.NewService(client, breaker, policy)

	releases, err := svc.FetchReleases(context.Background(), target)
	require.NoError(t, err)
	assert.Len(t, releases, 1)
	assert.Equal(t, 2, client.releaseCalls, "rejected attempts never reach the client")
}

func TestBreakerConfig_IgnoresNonTransientFailures(t *testing.T) {
	cfg := fetchUC.BreakerConfig()
	cfg.MinRequests = 1
	breaker := circuitbreaker.New(cfg)

	unauthorized := func() error {
		return &github.APIError{StatusCode: http.StatusUnauthorized, Message: "Bad credentials"}
	}
	client := &scriptedClient{
		activityErrs: []error{unauthorized(), unauthorized(), unauthorized(), unauthorized()},
	}
	svc := fetchUC.NewService(client, breaker, fastPolicy(1))

	for i := 0; i < 4; i++ {
		_, err := svc.FetchActivity(context.Background(), target)
		require.ErrorIs(t, err, entity.ErrAuth)
		assert.False(t, circuitbreaker.IsRejected(err), "call %d was rejected by the breaker", i)
	}
	assert.Equal(t, 4, client.activityCalls, "every call reaches the client while the breaker stays closed")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, fetchUC.IsTransient(gobreaker.ErrOpenState))
	assert.True(t, fetchUC.IsTransient(gobreaker.ErrTooManyRequests))
	assert.True(t, fetchUC.IsTransient(badGateway()))
	assert.False(t, fetchUC.IsTransient(context.Canceled))
	assert.False(t, fetchUC.IsTransient(errors.New("boom")))
}

func TestFetch_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())

	client := &scriptedClient{releaseErrs: []error{badGateway()}}
	svc := fetchUC.NewService(client, nil, fastPolicy(3))

	_, err := svc.FetchReleases(context.Background(), target)
	require.NoError(t, err)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "fetch.releases", spans[0].Name)

	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "octo/hello", attrs["repo.target"])
	assert.Equal(t, int64(2), attrs["fetch.attempts"])

	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "retry", spans[0].Events[0].Name)
}
