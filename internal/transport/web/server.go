package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/config"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	"github.com/EgorLis/book-module/internal/transport/web/v1/blob"
	"github.com/EgorLis/book-module/internal/transport/web/v1/book"
	"github.com/EgorLis/book-module/internal/transport/web/v1/health"
	"github.com/EgorLis/book-module/internal/transport/web/v1/resource"
	"github.com/EgorLis/book-module/internal/transport/web/v1/session"
	"github.com/EgorLis/book-module/internal/transport/web/v1/viewer"
)

type Server struct {
	log    zerolog.Logger
	server *http.Server
	cfg    *config.Config
}

type handlers struct {
	health   *health.Handler
	session  *session.Handler
	book     *book.Handler
	resource *resource.Handler
	blob     *blob.Handler
	viewer   *viewer.Handler
}

// NewHandler собирает роутер со всеми middleware; Server и тесты используют его напрямую
func NewHandler(logger zerolog.Logger, cfg *config.Config, svc Services, auth AuthDeps, probes Probes, degraded func() bool) http.Handler {
	child := func(name string) zerolog.Logger {
		return logger.With().Str("handler", name).Logger()
	}

	h := handlers{
		health: &health.Handler{
			Log:      child("health"),
			Store:    probes.Store,
			Cache:    probes.Cache,
			Storage:  probes.Storage,
			Degraded: degraded,
		},
		session: &session.Handler{
			Log:       child("session"),
			Gate:      auth.Gate,
			Tokens:    auth.Tokens,
			Blacklist: auth.Blacklist,
			Sessions:  svc.Engines,
			Degraded:  degraded,
		},
		book:     &book.Handler{Log: child("books"), Catalog: svc.Catalog},
		resource: &resource.Handler{Log: child("resources"), Library: svc.Library},
		blob:     &blob.Handler{Log: child("blobs"), Blobs: svc.Blobs},
		viewer:   &viewer.Handler{Log: child("viewer"), Engines: svc.Engines},
	}
	authDeps := mw.AuthDeps{Tokens: auth.Tokens, Blacklist: auth.Blacklist}
	return newRouter(h, authDeps, cfg.UploadMaxBytes, logger, degraded)
}

func New(logger zerolog.Logger, cfg *config.Config, svc Services, auth AuthDeps, probes Probes, degraded func() bool) *Server {
	addr := cfg.AppPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(logger, cfg, svc, auth, probes, degraded),
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Info().Str("addr", ws.server.Addr).Msg("started")
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatal().Err(err).Msg("listen failed")
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Error().Err(err).Msg("forced to shutdown")
	}
	ws.log.Info().Msg("exited gracefully")
}
