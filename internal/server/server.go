// Package server exposes a session over HTTP: the live viewer page, a JSON
// control API, a websocket frame stream and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/msalah0e/ontoview/internal/session"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	Title          string
	Version        string
	// LogFile receives one JSON line per request. Empty disables it.
	LogFile string
}

// RequestLog is one line of the request log.
type RequestLog struct {
	Timestamp time.Time `json:"ts"`
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Route     string    `json:"route,omitempty"`
	Status    int       `json:"status"`
	Bytes     int       `json:"bytes"`
	Duration  float64   `json:"duration_ms"`
}

// Server serves one session.
type Server struct {
	cfg       Config
	sess      *session.Session
	logger    *zap.Logger
	metrics   *Metrics
	hub       *Hub
	startedAt time.Time
	requests  atomic.Int64
	unsub     func()

	logMu   sync.Mutex
	logFile *os.File
}

// New creates a server for sess and subscribes its hub to the session frames.
func New(sess *session.Session, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	m := NewMetrics()
	s := &Server{
		cfg:       cfg,
		sess:      sess,
		logger:    logger,
		metrics:   m,
		startedAt: time.Now(),
	}
	s.hub = NewHub(sess.Snapshot, m, logger)
	s.unsub = sess.Subscribe(s.hub.Broadcast)
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/frame", s.handleFrame)
		r.Get("/graph", s.handleGraph)
		r.Post("/ontology", s.handleLoad)
		r.Post("/save", s.handleSave)
		r.Get("/nodes/*", s.handleNode)
		r.Post("/select", s.handleSelect)
		r.Post("/search", s.handleSearch)
		r.Post("/click", s.handleClick)
		r.Post("/pointer", s.handlePointer)
		r.Post("/drag", s.handleDrag)
		r.Post("/camera", s.handleCamera)
		r.Post("/resize", s.handleResize)
		r.Post("/query", s.handleQuery)
		r.Post("/chat", s.handleChat)
		r.Get("/docs", s.handleDocs)
	})
	return r
}

// accessLog records each request to zap, the metrics and the request log.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.requests.Add(1)
		s.metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())

		reqID := chimiddleware.GetReqID(r.Context())
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", reqID),
			zap.String("remote_addr", r.RemoteAddr),
		}
		switch {
		case status >= 500:
			s.logger.Error("request", fields...)
		case status >= 400:
			s.logger.Warn("request", fields...)
		default:
			s.logger.Debug("request", fields...)
		}

		s.writeLog(RequestLog{
			Timestamp: start,
			RequestID: reqID,
			Method:    r.Method,
			Path:      r.URL.Path,
			Route:     route,
			Status:    status,
			Bytes:     ww.BytesWritten(),
			Duration:  float64(elapsed.Microseconds()) / 1000,
		})
	})
}

func (s *Server) openLog() error {
	if s.cfg.LogFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.LogFile), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open request log: %w", err)
	}
	s.logMu.Lock()
	s.logFile = f
	s.logMu.Unlock()
	return nil
}

func (s *Server) writeLog(entry RequestLog) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	if s.logFile == nil {
		return
	}
	_ = json.NewEncoder(s.logFile).Encode(entry)
}

// ReadLogs returns the most recent n entries of a request log.
func ReadLogs(path string, n int) ([]RequestLog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []RequestLog
	dec := json.NewDecoder(f)
	for dec.More() {
		var entry RequestLog
		if err := dec.Decode(&entry); err != nil {
			break
		}
		all = append(all, entry)
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Run listens on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.openLog(); err != nil {
		_ = ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		s.logger.Info("server stopped")
		return nil
	}
	return err
}

// Close unsubscribes from the session and releases the request log. The
// session itself stays open.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.hub.Close()
	s.logMu.Lock()
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
	s.logMu.Unlock()
}
