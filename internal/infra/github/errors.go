package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"repo-digest/internal/domain/entity"
	"repo-digest/internal/resilience/retry"
)

// ErrMissingToken is returned by NewClient when no credential is configured.
var ErrMissingToken = fmt.Errorf("github: no token configured: %w", entity.ErrAuth)

// APIError represents a non-2xx response from the GitHub GraphQL endpoint.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// RateLimited reports whether the response is a primary (403) or
// secondary (429) rate limit.
func (err *APIError) RateLimited() bool {
	return err.StatusCode == http.StatusTooManyRequests ||
		(err.StatusCode == http.StatusForbidden && isRateLimitMessage(err.Message))
}

// Transient reports whether the request is worth repeating.
func (err *APIError) Transient() bool {
	return err.RateLimited() || retry.IsRetryableStatus(err.StatusCode)
}

// Is maps the response onto the domain error taxonomy.
func (err *APIError) Is(target error) bool {
	switch target {
	case entity.ErrTransient:
		return err.Transient()
	case entity.ErrAuth:
		return err.StatusCode == http.StatusUnauthorized ||
			(err.StatusCode == http.StatusForbidden && !err.RateLimited())
	case entity.ErrQuery:
		return !err.Transient() && err.StatusCode != http.StatusUnauthorized && err.StatusCode != http.StatusForbidden
	}
	return false
}

// GraphQLErrorItem is one entry of a GraphQL "errors" array.
type GraphQLErrorItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	// Path mixes field names and list indexes, e.g. ["repository","issues","nodes",0].
	Path []any `json:"path,omitempty"`
}

// GraphQLError is a 200 response whose body carries GraphQL errors.
// GitHub reports unknown repositories (NOT_FOUND) and rate limiting
// (RATE_LIMITED) this way.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

func (err *GraphQLError) Error() string {
	messages := make([]string, 0, len(err.Errors))
	for _, item := range err.Errors {
		if item.Type != "" {
			messages = append(messages, item.Type+": "+item.Message)
		} else {
			messages = append(messages, item.Message)
		}
	}
	return "github: graphql: " + strings.Join(messages, "; ")
}

// Transient is true only when every reported error is a rate limit.
func (err *GraphQLError) Transient() bool {
	if len(err.Errors) == 0 {
		return false
	}
	for _, item := range err.Errors {
		if item.Type != "RATE_LIMITED" {
			return false
		}
	}
	return true
}

// Is maps the response onto the domain error taxonomy.
func (err *GraphQLError) Is(target error) bool {
	switch target {
	case entity.ErrTransient:
		return err.Transient()
	case entity.ErrQuery:
		return !err.Transient()
	}
	return false
}

// TransportError wraps a failure to complete the HTTP exchange.
type TransportError struct {
	Err error
}

func (err *TransportError) Error() string {
	return "github: transport: " + err.Err.Error()
}

func (err *TransportError) Unwrap() error { return err.Err }

// Transient is always true. Failures caused by the caller's context are
// returned as the context error instead of a TransportError.
func (err *TransportError) Transient() bool { return true }

// Is maps the failure onto the domain error taxonomy.
func (err *TransportError) Is(target error) bool {
	return target == entity.ErrTransient && err.Transient()
}

// IsNotFound reports whether err is a GraphQL NOT_FOUND error.
func IsNotFound(err error) bool {
	var gqlError *GraphQLError
	if !errors.As(err, &gqlError) {
		return false
	}
	for _, item := range gqlError.Errors {
		if item.Type == "NOT_FOUND" {
			return true
		}
	}
	return false
}

// isRateLimitMessage checks whether a 403 error message indicates a
// rate limit rather than a permission issue.
func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "abuse detection")
}
