// Package server assembles the HTTP surface and starts the server.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/eventbus"
	"github.com/sinharash/entitypick/internal/handler"
	"github.com/sinharash/entitypick/internal/refcodec"
	"github.com/sinharash/entitypick/internal/resolve"
	"github.com/sinharash/entitypick/internal/session"
	"github.com/sinharash/entitypick/internal/wire"
)

const (
	sessionMaxAge      = 12 * time.Hour
	sessionIdleTimeout = 30 * time.Minute
	cleanupInterval    = 5 * time.Minute
)

// Config holds server configuration.
type Config struct {
	Addr  string
	Store catalog.Store
	Codec refcodec.Options
}

// Run starts the HTTP server with all routes registered and blocks
// until the context is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	bus := eventbus.New(256)
	resolver := resolve.New(cfg.Store, cfg.Codec)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Subscribe("resolver-cache", resolver)
	bus.Start(ctx)

	sessions := session.NewManager(sessionMaxAge, sessionIdleTimeout)
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessions.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	records := handler.NewRecordsHandler(cfg.Store, bus)
	resolveHandler := handler.NewResolveHandler(resolver)
	ws := wire.NewHandler(sessions, cfg.Store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/v1/records/query", records.QueryRecords)
	r.Get("/v1/records/{ref}", records.GetRecord)
	r.Post("/v1/records", records.UpsertRecords)
	r.Post("/v1/resolve", resolveHandler.Resolve)
	r.Handle("/v1/picker/ws", ws)

	log.Printf("starting server on %s", cfg.Addr)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
}
