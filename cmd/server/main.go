package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/liamcoop/spinecheck/appointments"
	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/catalog"
	"github.com/liamcoop/spinecheck/internal/config"
	"github.com/liamcoop/spinecheck/internal/logger"
	"github.com/liamcoop/spinecheck/internal/metrics"
	"github.com/liamcoop/spinecheck/scoring"
	_ "github.com/lib/pq"
	"golang.org/x/time/rate"
)

// Server is the HTTP API: scoring, questionnaire sessions and appointments
type Server struct {
	db           *sql.DB // nil when appointments are kept in memory
	engine       *scoring.Engine
	sessions     *assessment.SessionStore
	appointments appointments.Store
	metrics      *metrics.Registry
	limiter      *rate.Limiter // nil when rate limiting is disabled
	timeout      time.Duration
	now          func() time.Time
	router       *chi.Mux
}

// NewServer opens the appointments database when one is configured
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg.Database.URL == "" {
		logger.Warn("no database configured, appointments are kept in memory")
		return NewServerWithDB(cfg, nil)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewServerWithDB(cfg, db)
}

// NewServerWithDB builds the server around an open database, or the in-memory
// appointment store when db is nil
func NewServerWithDB(cfg *config.Config, db *sql.DB) (*Server, error) {
	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	engine, err := scoring.NewEngine(cat, cfg.Scoring.Options, cfg.Scoring.Adjustments...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring engine: %w", err)
	}

	logger.Info("scoring engine ready",
		"conditions", cat.Len(),
		"adjustments", len(engine.Adjustments()),
	)

	s := &Server{
		db:     db,
		engine: engine,
		sessions: assessment.NewSessionStore(assessment.SessionStoreConfig{
			TTL:             cfg.Session.TTL,
			CleanupInterval: cfg.Session.CleanupInterval,
		}),
		metrics: metrics.New(),
		timeout: cfg.Server.RequestTimeout,
		now:     time.Now,
	}

	if db != nil {
		s.appointments = appointments.NewPostgresStore(db)
	} else {
		s.appointments = appointments.NewInMemoryStore()
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}

	s.metrics.TrackSessions(s.sessions.Len)
	s.setupRoutes()

	return s, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	logger.Info("loaded catalog", "path", path, "conditions", cat.Len())
	return cat, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	// Health check and metrics are never rate limited
	r.Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		// Catalog
		r.Get("/api/v1/conditions", s.handleListConditions)
		r.Get("/api/v1/conditions/{conditionId}", s.handleGetCondition)
		r.Get("/api/v1/adjustments", s.handleListAdjustments)

		// One-shot scoring
		r.Post("/api/v1/assess", s.handleAssess)

		// Four-stage questionnaire
		r.Route("/api/v1/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/steps/{step}", s.handleSubmitStep)
				r.Post("/back", s.handleBack)
				r.Post("/reset", s.handleReset)
				r.Post("/spine/{section}", s.handleToggleSection)
				r.Post("/report", s.handleSessionReport)
			})
		})

		// Appointments
		r.Route("/api/v1/appointments", func(r chi.Router) {
			r.Get("/", s.handleListAppointments)
			r.Post("/", s.handleCreateAppointment)
			r.Get("/{appointmentId}", s.handleGetAppointment)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the database connection, if any
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default: ./spinecheck.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	if cfg.Log.Level != "" {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			logger.Warn("ignoring log level from config", "error", err)
		} else {
			logger.SetLevel(level)
		}
	}
	if cfg.File != "" {
		logger.Info("using config file", "path", cfg.File)
	}

	server, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	defer server.Close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
