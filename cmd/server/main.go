package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/ride-hail/internal/config"
	httpapi "github.com/example/ride-hail/internal/http"
	"github.com/example/ride-hail/internal/ingest"
	"github.com/example/ride-hail/internal/logging"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewLogger("ride-hail-api", cfg.LogLevel)

	// optional migration: apply migrations/001_create_orders.sql if requested
	if cfg.PGDSN != "" && cfg.RunMigrations {
		if db, err := sql.Open("postgres", cfg.PGDSN); err == nil {
			if b, err := os.ReadFile(filepath.Join("migrations", "001_create_orders.sql")); err == nil {
				if _, err := db.Exec(string(b)); err != nil {
					logger.Warn("migration exec error", "error", err)
				} else {
					logger.Info("migration applied", "file", "001_create_orders.sql")
				}
			}
			_ = db.Close()
		} else {
			logger.Warn("migration db open error", "error", err)
		}
	}

	api := httpapi.NewServer(cfg, logger)

	// mirror bus events to kafka when brokers are configured
	var mirror *ingest.KafkaMirror
	if len(cfg.KafkaBrokers) > 0 {
		mirror = ingest.NewKafkaMirror(cfg.KafkaBrokers, cfg.KafkaTopic)
		sub := api.Bus.Subscribe()
		go mirror.Run(sub, logger)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if mirror != nil {
		_ = mirror.Close()
	}
}
