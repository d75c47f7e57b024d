// Package main provides the entry point for the AO3 search API server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/di"
)

func main() {
	// Create DI container
	injector := di.NewContainer(os.Args[1:])

	// Bootstrap all services and start listening
	if err := di.Serve(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*slog.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The container stops the HTTP server first, then the runner, the
	// catalog client, the tag index and the cache.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Server stopped")
}
