/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api is the HTTP surface of `r1sync serve`: health, metrics, run
// triggers and run history.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/r1sync/pkg/logger"
)

const (
	defaultListen          = ":8080"
	defaultShutdownTimeout = 15 * time.Second
	defaultRunLimit        = 20
	maxRunLimit            = 500
)

var errNilDependency = errors.New("api: syncer, config lister and run lister are required")

// Config holds the listener settings.
type Config struct {
	Listen          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// Token, when set, guards the write endpoints.
	Token string
}

// Server serves the HTTP API. It implements suture.Service.
type Server struct {
	cfg     Config
	syncer  Syncer
	configs ConfigLister
	runs    RunLister
	health  func(ctx context.Context) error
	logger  logger.Logger

	// inflight holds the config ids with a sync triggered over HTTP.
	mu       sync.Mutex
	inflight map[int64]struct{}

	router chi.Router
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHealthCheck sets the probe behind /healthz.
func WithHealthCheck(fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = fn }
}

// New builds the server and its routes.
func New(cfg Config, syncer Syncer, configs ConfigLister, runs RunLister, opts ...Option) (*Server, error) {
	if syncer == nil || configs == nil || runs == nil {
		return nil, errNilDependency
	}

	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:      cfg,
		syncer:   syncer,
		configs:  configs,
		runs:     runs,
		logger:   logger.NewTestLogger(),
		inflight: make(map[int64]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.WithComponent("api")
	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(countRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/configs", func(r chi.Router) {
		r.Get("/", s.handleListConfigs)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/runs", s.handleListRuns)

			r.Group(func(r chi.Router) {
				r.Use(tokenAuth(s.cfg.Token))
				r.Post("/sync", s.handleSync)
				r.Post("/venues/refresh", s.handleRefreshVenues)
			})
		})
	})

	return r
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("listen", s.cfg.Listen).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return ctx.Err()
}

func (s *Server) String() string {
	return "api"
}

// claim marks id as in flight. It reports false when a sync is already running.
func (s *Server) claim(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[id]; busy {
		return false
	}

	s.inflight[id] = struct{}{}

	return true
}

func (s *Server) release(id int64) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}
