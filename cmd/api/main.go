package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vidaflow/backend/internal/cache"
	"github.com/vidaflow/backend/internal/config"
	"github.com/vidaflow/backend/internal/handler"
	healthHandler "github.com/vidaflow/backend/internal/handler/health"
	"github.com/vidaflow/backend/internal/ratelimit"
	"github.com/vidaflow/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var dataStore store.Store
	if cfg.Store.Configured() {
		sqliteStore, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer sqliteStore.Close()
		dataStore = sqliteStore
		log.Printf("sqlite store opened at %s", cfg.Store.Path)
	} else {
		dataStore = store.NewMemoryStore()
		log.Println("DATABASE_PATH not set, using in-memory store")
	}

	router := handler.NewRouter(handler.Deps{
		Store:           dataStore,
		StoreConfigured: cfg.Store.Configured(),
		Limiter:         ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window),
		HealthCache:     cache.NewSlot(cfg.Health.CacheTTL),
		HealthInfo: healthHandler.Info{
			Service: cfg.Service.Name,
			Env:     cfg.Service.Env,
			Version: cfg.Service.Version,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Vidaflow backend listening on %s", cfg.Server.Addr)
	if err := serveUntilShutdown(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// serveUntilShutdown runs srv until it fails or ctx is cancelled, then
// drains in-flight requests with a 10s grace period.
func serveUntilShutdown(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err = <-errCh
	case err = <-errCh:
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
