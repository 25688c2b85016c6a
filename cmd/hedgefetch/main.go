package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"andy.dev/hedge/cmd/hedgefetch/cmd"
)

var (
	appVersion = cmd.VersionDev
	commitHash = "dev"
)

func main() {
	// Initializing context with cancel for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := cmd.NewCmd(appVersion, commitHash)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		log.Fatal(err)
	}
}
