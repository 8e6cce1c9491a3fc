// Package fetch retrieves raw repository activity for the digest. Every
// remote call goes through the retry policy and the circuit breaker.
package fetch

import (
	"errors"

	"repo-digest/internal/resilience/circuitbreaker"
	"repo-digest/internal/resilience/retry"
)

// ErrNoClient indicates a Service was used without an ActivityClient.
var ErrNoClient = errors.New("fetch: no activity client configured")

// IsTransient reports whether a fetch failure is worth retrying. Breaker
// rejections are transient: waiting lets the breaker move to half-open.
func IsTransient(err error) bool {
	return circuitbreaker.IsRejected(err) || retry.IsRetryable(err)
}

// BreakerConfig returns the GitHub breaker configuration. Only transient
// failures count against the endpoint; an unknown repository or a rejected
// token says nothing about the endpoint's health.
func BreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.GitHubAPIConfig()
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || !IsTransient(err)
	}
	return cfg
}
