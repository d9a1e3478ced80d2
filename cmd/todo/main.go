package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, version, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
