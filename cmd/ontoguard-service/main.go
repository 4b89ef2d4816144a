package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vpakspace/ontoguard-ai/internal/audit"
	"github.com/vpakspace/ontoguard-ai/internal/engine"
	"github.com/vpakspace/ontoguard-ai/internal/loader"
	"github.com/vpakspace/ontoguard-ai/internal/server"
	"github.com/vpakspace/ontoguard-ai/pkg/config"
	"github.com/vpakspace/ontoguard-ai/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", "1.0.0").Info("Starting OntoGuard decision service")

	// Custom predicates registered here are resolvable from rule facts
	// by name. The registry ships empty; deployments add their own.
	registry := engine.NewRegistry()

	// Compile the initial index. Starting without a valid rule document
	// is refused: an empty engine would deny everything silently.
	snapshot := engine.NewSnapshot(nil)
	reloader := loader.NewReloader(cfg.Ontology.Path, registry, snapshot, log)
	ruleCount, err := reloader.Reload()
	if err != nil {
		log.WithError(err).Error("Failed to compile initial rule index")
		os.Exit(1)
	}
	log.WithField("rules", ruleCount).Info("Initial rule index compiled")

	// Root context canceled on shutdown, stops the file watcher
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Ontology.Watch {
		go func() {
			if err := reloader.Watch(ctx); err != nil {
				log.WithError(err).Error("Ontology file watcher stopped")
			}
		}()
	}

	// Audit recorder: Postgres when configured, else in-memory
	var recorder audit.Recorder
	if cfg.Audit.Enabled {
		pg, err := audit.NewPostgresRecorder(&cfg.Audit.Database)
		if err != nil {
			log.WithError(err).Error("Failed to connect to audit database")
			os.Exit(1)
		}
		recorder = pg
	} else {
		recorder = audit.NewMemoryRecorder(0)
	}
	defer recorder.Close()

	svc := server.NewService(cfg, snapshot, reloader, recorder, log)

	// Start server in a goroutine
	go func() {
		if err := svc.Start(); err != nil {
			log.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down OntoGuard decision service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info("OntoGuard decision service stopped")
}
