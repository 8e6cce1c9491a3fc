// Package retry provides retry logic with exponential backoff and jitter.
// It helps handle transient failures gracefully by automatically retrying failed operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Policy holds the configuration for retry logic.
//
// The wait before attempt k (1-indexed, k >= 2) is BaseDelay*2^k plus a
// uniformly random jitter in [0, Jitter), so the first retry waits 4s with
// the defaults. MaxDelay caps the exponential part when positive.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int

	// BaseDelay is multiplied by 2^k to get the wait before attempt k
	BaseDelay time.Duration

	// Jitter is the exclusive upper bound of the random delay added to every wait
	Jitter time.Duration

	// MaxDelay caps the exponential part of the delay (0 = uncapped)
	MaxDelay time.Duration

	// Retryable classifies errors; nil means IsRetryable
	Retryable func(error) bool

	// OnRetry is called before each wait with the failed attempt number,
	// its error and the chosen delay
	OnRetry func(attempt int, err error, delay time.Duration)

	// Logger receives retry progress; nil means slog.Default()
	Logger *slog.Logger

	// sleep and random are replaced in tests
	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

// DefaultPolicy returns the policy used for GitHub API calls:
// ten attempts, 2^k seconds plus up to one second of jitter before attempt k.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 10,
		BaseDelay:   1 * time.Second,
		Jitter:      1000 * time.Millisecond,
	}
}

// Do executes call with retry logic and exponential backoff.
// It returns the first successful result, or the last error if all attempts fail.
// Non-retryable errors are returned unchanged after the first failure.
func Do[T any](ctx context.Context, p Policy, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := call(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			logger.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return zero, err
		}

		// Don't wait after last attempt
		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt + 1)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		if err := p.wait(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry aborted: %w", err)
		}
	}

	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, lastErr)
}

// Delay returns the wait before attempt k (1-indexed).
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if attempt > 0 {
		// Clamp keeps the shift far from int64 overflow.
		shift := attempt
		if shift > 30 {
			shift = 30
		}
		base = p.BaseDelay * time.Duration(1<<shift)
	}
	if p.MaxDelay > 0 && base > p.MaxDelay {
		base = p.MaxDelay
	}
	return base + p.jitter()
}

// jitter returns a uniformly random duration in [0, Jitter).
func (p Policy) jitter() time.Duration {
	if p.Jitter <= 0 {
		return 0
	}
	random := p.random
	if random == nil {
		// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
		// Cryptographic randomness is not required for retry backoff jitter.
		random = rand.Float64
	}
	return time.Duration(random() * float64(p.Jitter))
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transient is implemented by errors that know whether they are worth retrying.
type transient interface {
	Transient() bool
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Errors that classify themselves win over everything below
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Any network-level failure (DNS, dial, reset, timeout)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	// HTTP status codes
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return IsRetryableStatus(httpErr.StatusCode)
	}

	return false
}

// IsRetryableStatus reports whether an HTTP status is a transient server condition.
func IsRetryableStatus(code int) bool {
	// 5xx server errors are retryable
	if code >= 500 && code < 600 {
		return true
	}
	// 429 Too Many Requests and 408 Request Timeout are retryable
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
