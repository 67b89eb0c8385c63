package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/recommend"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:5000"

	// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64

	// CORSOrigins enables CORS on the JSON API when non-empty.
	CORSOrigins []string
	// RateLimitRequests per RateLimitWindow per client IP on POST routes;
	// zero disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	TemplatesFS fs.FS
	StaticFS    fs.FS

	Mood    MoodService
	Dataset *dataset.Dataset
	Table   recommend.Table
}

func (c *ServerConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
}

// Server is the HTTP server for the web application.
type Server struct {
	router          chi.Router
	server          *http.Server
	handlers        *Handlers
	shutdownTimeout time.Duration
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Mood == nil || cfg.Dataset == nil {
		return nil, errors.New("web: mood service and dataset are required")
	}
	cfg.applyDefaults()

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	handlers := NewHandlers(cfg.Mood, cfg.Dataset, cfg.Table, templates, cfg.MaxUploadBytes)

	router := chi.NewRouter()

	s := &Server{
		router:          router,
		handlers:        handlers,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog)
	s.router.Use(recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(cfg ServerConfig) {
	h := s.handlers

	// Static files
	if cfg.StaticFS != nil {
		fileServer := http.FileServer(http.FS(cfg.StaticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	s.router.Get("/", h.Home)
	s.router.Get("/health", h.Health)
	s.router.Handle("/metrics", promhttp.Handler())

	limit := rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)

	s.router.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/detect_emotion", h.DetectEmotion)
		r.Post("/webcam", h.Webcam)
	})

	s.router.Route("/api", func(r chi.Router) {
		if c := corsHandler(cfg.CORSOrigins); c != nil {
			r.Use(c)
		}
		r.Get("/emotions", h.Emotions)
		r.Get("/bands", h.Bands)
		r.With(optional(limit)...).Post("/recommendations", h.Recommendations)
	})
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.server.Addr).Msgf("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		logging.Info().Msg("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
