package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petstore/internal/adapters/storage"
	"petstore/internal/config"
	"petstore/internal/domain/health"
	"petstore/internal/domain/pets"
	"petstore/internal/platform/logger"
	"petstore/internal/router"
)

// @title       Pet Store API
// @version     1.0
// @description CRUD de mascotas sobre SQLite o PostgreSQL.
// @BasePath    /api/v1
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid configuration", map[string]any{"error": err.Error()})
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.Options{
		URL:      cfg.DB.URL,
		MaxConns: cfg.DB.MaxConns,
		Log:      log,
	})
	if err != nil {
		log.Error("open storage", map[string]any{"error": err.Error()})
		return err
	}
	defer store.Close()

	h := router.NewRouter(router.Options{
		Pets:   pets.NewService(store.Pets),
		Health: health.NewService(store, cfg.App.Environment),
		Logger: log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":        srv.Addr,
			"driver":      store.DriverName(),
			"environment": cfg.App.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"error": err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}
