package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/crates/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadDotEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	if err := runner.app().Run(ctx, os.Args); err != nil {
		stop()
		if h := hint(err); h != "" {
			logger.Warn(h)
		}
		logger.Fatalf("application error: %v", err)
	}
}
