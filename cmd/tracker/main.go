package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tracker/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCommand(cli.EnvAppOpener))
	stop()
	os.Exit(code)
}
