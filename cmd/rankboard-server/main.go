package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx := context.Background()
	app, err := BuildApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	cfg, log := app.Config, app.Logger
	log.Info("starting rankboard server",
		"profile", cfg.Profile,
		"address", cfg.Server.Address,
		"storage_adapter", cfg.Storage.Adapter,
		"registry_key", cfg.Ranking.RegistryKey)

	srv := app.Server
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	exit := 0
	select {
	case <-quit:
	case err := <-errCh:
		log.Error("server failed", "error", err)
		exit = 1
	}

	log.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during server shutdown", "error", err)
		exit = 1
	}
	if err := app.Service.Close(); err != nil {
		log.Error("error closing ranking service", "error", err)
		exit = 1
	}

	log.Info("server stopped")
	if exit != 0 {
		cancel()
		os.Exit(exit)
	}
}
