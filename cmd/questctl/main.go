package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yashy10/golden-gate-quest/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.RootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
