// Command repodigest turns a day of GitHub activity into Atom feeds.
//
// Usage:
//
//	repodigest releases --output-dir feeds dotnet/runtime dotnet/sdk
//	repodigest issues-and-pull-requests --output-dir feeds dotnet/runtime
//	repodigest worker --output-dir feeds --schedule "5 0 * * *" dotnet/runtime
//
// The GitHub token is read from GITHUB_TOKEN (see github.token_env).
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repo-digest/internal/observability/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	err := execute(ctx, os.Args[1:], os.Stdout, logger, time.Now)
	stop()
	if err != nil {
		logger.Error("repodigest failed", slog.String("error", logging.SanitizeError(err)))
		os.Exit(1)
	}
}

// execute runs the command line in args. Any failed repository, aborted
// run or invalid input surfaces as a non-nil error.
func execute(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger, clock func() time.Time) error {
	root := newRootCmd(&options{logger: logger, clock: clock})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stdout)
	return root.ExecuteContext(ctx)
}
