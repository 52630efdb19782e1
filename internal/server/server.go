package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/pagescope/internal/database"
	"github.com/nao1215/pagescope/internal/model"
)

// Default server timeouts.
const (
	DefaultRequestTimeout = 60 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 90 * time.Second
)

// Service runs the pipeline. *pipeline.Analyzer implements it.
type Service interface {
	Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error)
	Score(ctx context.Context, rawURL string, isPublic bool) (*model.ScoreResult, error)
}

// ScoreLister lists stored public scores. *database.ResultDB implements it.
type ScoreLister interface {
	ListPublicScores(ctx context.Context, limit int) ([]database.ScoreSummary, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	service        Service
	lister         ScoreLister
	gatherer       prometheus.Gatherer
	requestTimeout time.Duration
	logger         *slog.Logger
	router         http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// Option configures a Server.
type Option func(*Server)

// WithScoreLister enables GET /api/scores.
func WithScoreLister(lister ScoreLister) Option {
	return func(s *Server) {
		s.lister = lister
	}
}

// WithGatherer sets the registry served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRequestTimeout bounds the handling of one request.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server.
func New(service Service, opts ...Option) *Server {
	s := &Server{
		service:        service,
		gatherer:       prometheus.DefaultGatherer,
		requestTimeout: DefaultRequestTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       DefaultReadTimeout,
		ReadHeaderTimeout: DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("server listening", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
