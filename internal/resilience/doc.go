// Package resilience holds the fault tolerance patterns used around the
// GitHub API.
//
//   - retry: a reusable retry policy with exponential backoff and jitter
//   - circuitbreaker: a gobreaker wrapper that stops hammering a failing API
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.GitHubAPIConfig())
//	releases, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context) ([]entity.Release, error) {
//	    return circuitbreaker.Call(cb, func() ([]entity.Release, error) {
//	        return client.FetchReleases(ctx, target)
//	    })
//	})
package resilience
