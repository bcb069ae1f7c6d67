// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the Cluster Forge HTTP API: catalog
// listings, dependency resolution previews, and bootstrap / update
// generation with tokenized script downloads.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/config"
	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/observability"
	"go.opendefense.cloud/forge/pkg/resolve"
	"go.opendefense.cloud/forge/pkg/session"
)

// Server serves the bootstrap API.
type Server struct {
	cfg      config.BaseConfig
	store    *catalog.Store
	resolver *resolve.Resolver
	synth    *manifest.Synthesizer
	sessions *session.Store
	logger   logr.Logger

	handler http.Handler
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New wires the API around a catalog snapshot and a session store.
func New(cfg config.BaseConfig, store *catalog.Store, sessions *session.Store, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		logger:   logr.Discard(),
	}
	for _, o := range opts {
		o(s)
	}

	resolverOpts := []resolve.Option{resolve.WithLogger(s.logger)}
	if cfg.Catalog.StrictSelection {
		resolverOpts = append(resolverOpts, resolve.WithUnknownPolicy(resolve.FailUnknown))
	}
	s.resolver = resolve.New(store, resolverOpts...)
	s.synth = manifest.NewSynthesizer(store, manifest.WithLogger(s.logger))

	s.handler = s.buildHandler()
	return s
}

func (s *Server) buildHandler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/components", s.handleComponents).Methods(http.MethodGet)
	api.HandleFunc("/components/{id}", s.handleComponent).Methods(http.MethodGet)
	api.HandleFunc("/components/{id}/schema", s.handleComponentSchema).Methods(http.MethodGet)
	api.HandleFunc("/resolve-dependencies", s.handleResolve).Methods(http.MethodPost)
	api.HandleFunc("/preview", s.handlePreview).Methods(http.MethodPost)
	api.HandleFunc("/bootstrap", s.handleBootstrap).Methods(http.MethodPost)
	api.HandleFunc("/update", s.handleUpdate).Methods(http.MethodPost)

	r.HandleFunc("/bootstrap/{token}", s.handleDownload(session.KindBootstrap)).Methods(http.MethodGet)
	r.HandleFunc("/update/{token}", s.handleDownload(session.KindUpdate)).Methods(http.MethodGet)

	r.Use(observability.RecoveryMiddleware(s.logger))
	if s.cfg.Telemetry.Enabled {
		r.Use(observability.HTTPMiddleware(observability.HTTPMiddlewareConfig{
			Tracer:      observability.Tracer(s.cfg.ServiceName),
			Meter:       observability.Meter(s.cfg.ServiceName),
			Logger:      s.logger,
			ServiceName: s.cfg.ServiceName,
		}))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(r)
}

// Handler returns the fully assembled HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until the context is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Address(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
