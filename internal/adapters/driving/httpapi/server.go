// Package httpapi exposes the chat pipeline over HTTP: batch queries,
// server-sent-event streaming, feedback capture and reindexing.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// DefaultMaxInputSize bounds the request body of a query.
const DefaultMaxInputSize = 64 << 10

// shutdownTimeout bounds graceful shutdown on context cancellation.
const shutdownTimeout = 5 * time.Second

// Status describes the running pipeline for the health endpoint.
type Status struct {
	Model     string `json:"model"`
	Streaming bool   `json:"streaming"`
	Degraded  bool   `json:"degraded"`
	Chunks    int    `json:"chunks"`
}

// StatusFunc supplies the current pipeline status.
type StatusFunc func() Status

// Server serves the chat API.
type Server struct {
	chat         driving.ChatService
	ingestor     driving.Ingestor
	feedback     driven.FeedbackStore
	status       StatusFunc
	addr         string
	maxInputSize int64
}

// Option configures the server.
type Option func(*Server)

// WithMaxInputSize bounds the accepted request body size.
func WithMaxInputSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInputSize = n
		}
	}
}

// NewServer creates the API server. feedback may be nil to disable the
// feedback endpoint; status may be nil to reduce /healthz to a liveness
// check.
func NewServer(
	addr string,
	chat driving.ChatService,
	ingestor driving.Ingestor,
	feedback driven.FeedbackStore,
	status StatusFunc,
	opts ...Option,
) *Server {
	s := &Server{
		chat:         chat,
		ingestor:     ingestor,
		feedback:     feedback,
		status:       status,
		addr:         addr,
		maxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router creates the chi router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/query", s.handleQuery)
	r.Get("/stream", s.handleStream)
	r.Post("/reindex", s.handleReindex)
	if s.feedback != nil {
		r.Post("/feedback", s.handleFeedback)
	}

	return r
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", s.addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
