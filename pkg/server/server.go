// Package server exposes the gift feed, the circulation graph and its
// layout over HTTP.
//
// Routes:
//
//	GET    /healthz                   build info
//	GET    /metrics                   Prometheus metrics (when enabled)
//	GET    /api/users                 all users
//	GET    /api/gifts?q=              feed, newest first, optionally filtered
//	POST   /api/gifts                 {sender, receiver, item}
//	PUT    /api/gifts/{id}            {sender, receiver, item}
//	DELETE /api/gifts/{id}
//	POST   /api/gifts/{id}/comments   {user, text}
//	POST   /api/gifts/{id}/tips
//	GET    /api/graph                 circulation graph
//	GET    /api/layout                settled layout (width, height, seed, seed_mode)
//	GET    /graph.{format}            rendered artifact (svg, png, pdf, dot, json)
//
// Errors are JSON objects {"code", "message"} with a status derived from
// the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/pipeline"
)

// Config holds listener and CORS settings.
type Config struct {
	Addr            string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		CORSOrigins:     []string{"*"},
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	svc      *gift.Service
	runner   *pipeline.Runner
	defaults pipeline.Options
	metrics  http.Handler
	logger   *log.Logger
	now      func() time.Time
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithConfig replaces the listener settings.
func WithConfig(cfg Config) Option { return func(s *Server) { s.cfg = cfg } }

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithLayoutDefaults sets the pipeline options that query parameters
// override.
func WithLayoutDefaults(o pipeline.Options) Option { return func(s *Server) { s.defaults = o } }

// WithClock sets the time source used for relative ages in the feed.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New creates a server. A nil runner gets an uncached one.
func New(svc *gift.Service, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		cfg:    DefaultConfig(),
		svc:    svc,
		runner: runner,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
