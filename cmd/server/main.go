package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/docai/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.logger.Info(
		"docai starting",
		"version", cfg.Version,
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
	)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	<-ctx.Done()
	srv.logger.Info("shutdown signal received")

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}

	srv.logger.Info("docai stopped")
	return nil
}
