// Package github is a minimal GitHub GraphQL client for the queries the
// digest needs: recent issue and pull request activity, and recent releases.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"repo-digest/internal/domain/entity"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Limits caps the size of each collection fetched per repository.
type Limits struct {
	// Items is the top-K for each issue and pull request collection.
	Items int
	// Releases is the top-K for the release collection.
	Releases int
	// Labels is how many label names are fetched per issue or pull request.
	Labels int
}

// DefaultLimits returns 100 issues/PRs per collection, 10 releases, 10 labels.
func DefaultLimits() Limits {
	return Limits{Items: 100, Releases: 10, Labels: 10}
}

// Config holds configuration for creating a GitHub GraphQL Client.
type Config struct {
	// Endpoint is the GraphQL URL. Defaults to DefaultEndpoint.
	Endpoint string

	// Token is the bearer credential. Required.
	Token string

	// HTTPClient is used for all requests. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// RequestsPerSecond and Burst configure client-side rate limiting.
	// Zero disables limiting.
	RequestsPerSecond float64
	Burst             int

	// Limits caps collection sizes. Zero fields take DefaultLimits values.
	Limits Limits

	// UserAgent is sent with every request.
	UserAgent string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client issues typed GraphQL queries against GitHub.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	limiter    *RateLimiter
	limits     Limits
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a client from cfg. A missing token yields
// ErrMissingToken, which matches entity.ErrAuth.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
		return nil, fmt.Errorf("github: endpoint must be an http(s) URL (got %q)", endpoint)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limits := cfg.Limits
	defaults := DefaultLimits()
	if limits.Items <= 0 {
		limits.Items = defaults.Items
	}
	if limits.Releases <= 0 {
		limits.Releases = defaults.Releases
	}
	if limits.Labels <= 0 {
		limits.Labels = defaults.Labels
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "repo-digest"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		httpClient: httpClient,
		limiter:    NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		limits:     limits,
		userAgent:  userAgent,
		logger:     logger,
	}, nil
}

// Limits returns the effective collection limits.
func (c *Client) Limits() Limits {
	return c.limits
}

// FetchActivity retrieves the six issue and pull request collections for
// target in one round trip. Each collection is newest-first as ordered by
// the server.
func (c *Client) FetchActivity(ctx context.Context, target entity.RepoTarget) (entity.ActivitySnapshot, error) {
	var data activityData
	err := c.query(ctx, graphQLRequest{
		Query:         activityQuery,
		OperationName: "RepositoryActivity",
		Variables: map[string]any{
			"owner":  target.Owner,
			"name":   target.Name,
			"first":  c.limits.Items,
			"labels": c.limits.Labels,
		},
	}, &data)
	if err != nil {
		return entity.ActivitySnapshot{}, err
	}
	if data.Repository == nil {
		return entity.ActivitySnapshot{}, repositoryNotFound(target)
	}

	repo := data.Repository
	return entity.ActivitySnapshot{
		OpenIssuesByUpdated:       repo.OpenIssuesByUpdated.toEntities(),
		OpenIssuesByCreated:       repo.OpenIssuesByCreated.toEntities(),
		ClosedIssues:              repo.ClosedIssues.toEntities(),
		OpenPullRequestsByUpdated: repo.OpenPullRequestsByUpdated.toEntities(),
		OpenPullRequestsByCreated: repo.OpenPullRequestsByCreated.toEntities(),
		MergedPullRequests:        repo.MergedPullRequests.toEntities(),
	}, nil
}

// FetchReleases retrieves the most recently created releases for target.
func (c *Client) FetchReleases(ctx context.Context, target entity.RepoTarget) ([]entity.Release, error) {
	var data releasesData
	err := c.query(ctx, graphQLRequest{
		Query:         releasesQuery,
		OperationName: "RepositoryReleases",
		Variables: map[string]any{
			"owner": target.Owner,
			"name":  target.Name,
			"first": c.limits.Releases,
		},
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Repository == nil {
		return nil, repositoryNotFound(target)
	}
	return data.toEntities(), nil
}

// query executes one GraphQL round trip and decodes "data" into out.
//
// Non-2xx responses return *APIError. A 200 response carrying GraphQL
// errors returns *GraphQLError. Transport failures return *TransportError
// unless the caller's context ended, in which case the context error is
// returned.
func (c *Client) query(ctx context.Context, req graphQLRequest, out any) error {
	if err := c.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("github: rate limiter: %w", err)
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("github: encoding request body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	c.logger.Debug("graphql round trip",
		slog.String("operation", req.OperationName),
		slog.Int("status", response.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("rate_limit_remaining", response.Header.Get("X-RateLimit-Remaining")))

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIError(response.StatusCode, body)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &APIError{StatusCode: response.StatusCode, Message: "undecodable response: " + err.Error()}
	}
	if len(envelope.Errors) > 0 {
		return &GraphQLError{Errors: envelope.Errors}
	}
	if len(envelope.Data) == 0 {
		return &GraphQLError{Errors: []GraphQLErrorItem{{Message: "response has no data"}}}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("github: decoding %s data: %w", req.OperationName, err)
	}
	return nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
		apiErr.DocumentationURL = parsed.DocumentationURL
	} else {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func repositoryNotFound(target entity.RepoTarget) *GraphQLError {
	return &GraphQLError{Errors: []GraphQLErrorItem{{
		Type:    "NOT_FOUND",
		Message: fmt.Sprintf("Could not resolve to a Repository with the name '%s'.", target),
	}}}
}
