package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fetchview/fetchview/internal/config"
	"github.com/fetchview/fetchview/internal/fetch"
	"github.com/fetchview/fetchview/internal/logging"
	"github.com/fetchview/fetchview/internal/middleware"
	"github.com/fetchview/fetchview/internal/monitoring"
	"github.com/fetchview/fetchview/internal/relay"
	"github.com/fetchview/fetchview/internal/render"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	httpSrv *http.Server
}

// New wires the service together from configuration.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("initializing fetchview",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Duration("fetch_timeout", cfg.Fetch.Timeout),
		zap.Int64("transfer_cap", relay.MaxTransferSize),
	)

	metrics := monitoring.NewMetrics()

	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, logger)
	collector := relay.NewCollector(relay.MaxTransferSize)
	proxy := relay.NewProxy(relay.MaxTransferSize, logger)
	handlers := NewHandlers(fetcher, collector, proxy, renderer, logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
	}
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	registerRoutes(router, handlers, metrics)

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

func registerRoutes(router *gin.Engine, handlers *Handlers, metrics *monitoring.Metrics) {
	router.GET("/", handlers.Index)
	router.POST("/fetch", handlers.Fetch)
	router.GET("/image", handlers.Image)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	defer s.logger.Sync()

	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
