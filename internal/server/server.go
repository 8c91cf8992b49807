// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

const (
	// formOverhead is the allowance for multipart framing and text fields on
	// top of the payload limit.
	formOverhead = 1 << 20

	// memoryLimit is how much of a multipart body is held in memory before
	// spilling to temporary files.
	memoryLimit = 32 << 20

	shutdownGrace = 10 * time.Second
)

// Server routes HTTP requests to a convert.Service.
type Server struct {
	svc      convert.Service
	maxBytes int64
	log      logrus.FieldLogger
	router   *chi.Mux
}

// New builds a Server. maxUploadBytes bounds request bodies before they
// reach the engine, which applies its own exact limit.
func New(svc convert.Service, maxUploadBytes int64, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{svc: svc, maxBytes: maxUploadBytes, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/formats", s.handleFormats)
	r.Group(func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/convert", s.handleConvert)
		r.Post("/merge", s.handleMerge)
		r.Post("/split", s.handleSplit)
		r.Post("/compress", s.handleCompress)
	})
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg types.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", cfg.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// logRequests logs one line per request with the chi request id.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Info("http request")
	})
}

// limitBody caps the request body so oversized uploads fail before they
// are buffered.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+formOverhead)
		next.ServeHTTP(w, r)
	})
}
