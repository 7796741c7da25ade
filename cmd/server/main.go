package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/config"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/events"
	"github.com/tableside/api/internal/logging"
	"github.com/tableside/api/internal/relay"
	"github.com/tableside/api/internal/router"
	"github.com/tableside/api/internal/storage"
	"github.com/tableside/api/internal/ws"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	bus := events.NewBus()

	hub := ws.NewHub(cfg.HeartbeatInterval)
	go hub.Run(ctx)
	bus.Subscribe(ws.Fanout(hub))

	sink, err := relay.Open(cfg)
	if err != nil {
		return fmt.Errorf("event relay: %w", err)
	}
	if sink != nil {
		rl := relay.New(sink, 0)
		bus.Subscribe(rl.Handle)
		go rl.Run(ctx)
		log.WithField("driver", cfg.RelayDriver).Info("event relay enabled")
	}

	files, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, database.New(pool), pool, hub, bus, files),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
