// Package server serves the report presentation and the results directory.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"billdecoder/internal/report"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	addr   string
	dir    string
	logger *zap.Logger
	mcp    http.HandlerFunc
}

type Option func(*Server)

// WithMCP mounts an MCP endpoint at POST /mcp.
func WithMCP(h http.HandlerFunc) Option {
	return func(s *Server) { s.mcp = h }
}

func New(addr, resultsDir string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{addr: addr, dir: resultsDir, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes "/" to the presentation page and everything else to the
// results directory.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer, cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.presentation)
	if s.mcp != nil {
		r.Post("/mcp", s.mcp)
	}
	r.Handle("/*", http.FileServer(http.Dir(s.dir)))
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func (s *Server) presentation(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.dir, report.PresentationFile)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "presentation not found; run an evaluation first", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln and shuts down gracefully when ctx is
// cancelled. It returns nil after a clean shutdown.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stopped := make(chan struct{})
	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("report server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("report server listening", zap.String("addr", ln.Addr().String()), zap.String("dir", s.dir))
	err := srv.Serve(ln)
	close(stopped)
	<-shutdown
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
