package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freightops/load-ledger-api/internal/api"
	"github.com/freightops/load-ledger-api/internal/config"
	"github.com/freightops/load-ledger-api/internal/scheduler"
	"github.com/freightops/load-ledger-api/internal/seed"
	"github.com/freightops/load-ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogLevel)
	l.Info("Starting load ledger API...")

	if cfg.APIKey == "" {
		l.Warn("API_KEY is not set, authentication is disabled")
	}

	server := api.NewServer(cfg, l)

	// Seed the ledger before accepting traffic; seeded records are treated
	// as manual assignments until something updates them.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 60*time.Second)
	loaded, err := seed.NewLoader(server.Shipments(), l).Load(seedCtx, cfg.SeedDataPath)
	cancelSeed()

	if err != nil {
		l.Error("Seed import failed", "error", err)
	} else if loaded > 0 {
		l.Info("Seed import finished", "loaded", loaded)
	}

	jobs := scheduler.New(server.Shipments(), l)

	if err := jobs.Start(cfg.ReportSchedule); err != nil {
		l.Error("Failed to schedule ledger report", "error", err)
	}

	go func() {
		l.Info(fmt.Sprintf("Server is starting on port %d", cfg.Port))

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			l.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown via interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("Shutting down server...")

	jobs.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Error("Server forced to shutdown", "error", err)
	} else {
		l.Info("Server exiting")
	}
}
