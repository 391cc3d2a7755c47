package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epireve/hey-peter-scheduler/internal/app"
)

// Standalone server entrypoint for container images that only run the HTTP
// server. The full CLI lives at the repository root.
func main() {
	container, cleanup, err := app.Initialize()
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() { errCh <- container.Server.StartHTTP() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		container.Logger.Infof("received signal: %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Server.Shutdown(ctx); err != nil {
			log.Fatalf("shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("serve: %v", err)
		}
	}
}
