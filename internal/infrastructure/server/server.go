package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/leadform/internal/api/http"
	"github.com/GriffinCanCode/leadform/internal/api/middleware"
	"github.com/GriffinCanCode/leadform/internal/domain/lead"
	"github.com/GriffinCanCode/leadform/internal/domain/store"
	"github.com/GriffinCanCode/leadform/internal/domain/website"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/config"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/logging"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/leadform/internal/providers/fetch"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	store    *store.Store
	websites *website.Manager
	leads    *lead.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing leadform server",
		zap.String("addr", cfg.Server.Address()),
		zap.String("snapshot", cfg.Store.SnapshotPath),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	st, err := store.Open(cfg.Store.SnapshotPath, logger.Component("store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	fetcher := fetch.New(cfg.Fetch,
		fetch.WithLogger(logger.Component("fetch")),
		fetch.WithMetrics(metrics),
	)
	extractor := scraper.NewExtractor(scraper.Limits{
		MaxHTMLSize: cfg.Detection.MaxHTMLSize,
		MaxDepth:    cfg.Detection.MaxDepth,
	})

	websites := website.NewManager(st, fetcher, extractor, cfg.Website).
		WithLogger(logger.Component("website")).
		WithMetrics(metrics)
	leads := lead.NewManager(st).
		WithLogger(logger.Component("lead")).
		WithMetrics(metrics)

	router := NewRouter(cfg, logger, metrics, apihttp.NewHandlers(websites, leads).
		WithLogger(logger.Component("http")).
		WithBreakers(fetcher))

	logger.Info("Server initialized successfully", zap.Int("websites", st.WebsiteCount()))

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.Server.Address(),
			Handler: router,
		},
		store:    st,
		websites: websites,
		leads:    leads,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// NewRouter builds the gin engine with the middleware stack and all routes
func NewRouter(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, handlers *apihttp.Handlers) *gin.Engine {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("access")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins)))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers.Register(router, metrics)
	return router
}

// Router exposes the configured engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A graceful
// Shutdown makes Run return nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
