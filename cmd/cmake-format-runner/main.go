package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andyballingall/cmake-format-runner/internal/app"
)

func main() {
	// Create context that cancels on SIGINT (Ctrl+C) or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, os.Args, os.Stdout, os.Stderr, nil)
	stop()

	os.Exit(code)
}
