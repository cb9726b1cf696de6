// Package server is the reference REST backend the dashboard talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/idilsaglam/violet/internal/server/boltdb"
)

// Options configures a Server.
type Options struct {
	Addr string

	// Token, when set, is required as a bearer token on every request
	// except CORS preflight.
	Token string

	Logger *slog.Logger
}

type Server struct {
	db         *boltdb.DB
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
}

func New(db *boltdb.DB, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{db: db, opts: opts, logger: logger}
}

// Handler returns the routed handler wrapped in logging, CORS and auth.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return s.loggingMiddleware(cors(s.authMiddleware(mux)))
}

// Start serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("server listening", slog.String("addr", listener.Addr().String()))

	errc := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	return s.Shutdown(context.Background()) //nolint:contextcheck // parent is cancelled
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
