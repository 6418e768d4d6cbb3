package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/internal/config"
	"salesrecon/server/handlers"
	"salesrecon/server/middleware"
	"salesrecon/server/monitoring"
)

// Version версия сервиса, выводимая в /health
var Version = "dev"

// Server HTTP сервер сверки продаж
type Server struct {
	config     *config.Config
	db         *database.SalesDB
	registry   *address.CachedRegistry
	metrics    *monitoring.Metrics
	health     *monitoring.HealthChecker
	limiter    *middleware.RateLimiter
	logger     *slog.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// New собирает сервер: справочники адресов, кэш эталонного реестра, метрики и маршруты
func New(cfg *config.Config, db *database.SalesDB, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if db == nil {
		return nil, fmt.Errorf("sales database is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	reference := address.DefaultReference()
	if cfg.ReferencePath != "" {
		loaded, err := address.LoadReference(cfg.ReferencePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load address reference: %w", err)
		}
		reference = loaded
	}
	resolver, err := address.NewResolver(reference, address.WithThresholds(cfg.Thresholds()))
	if err != nil {
		return nil, fmt.Errorf("failed to create address resolver: %w", err)
	}

	s := &Server{
		config:   cfg,
		db:       db,
		registry: address.NewCachedRegistry(db, cfg.RegistryTTL),
		metrics:  monitoring.NewMetrics(),
		health:   monitoring.NewHealthChecker(Version),
		limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:   logger,
	}
	s.metrics.RegisterRegistryCache(s.registry)
	s.health.RegisterPinger("database", db, true)

	h, err := handlers.New(handlers.Dependencies{
		Resolver:         resolver,
		Registry:         s.registry,
		Store:            db,
		Metrics:          s.metrics,
		ReconcileOptions: cfg.ReconcileOptions(),
		DuplicatePolicy:  cfg.DefaultDuplicatePolicy(),
		MaxUploadSize:    cfg.MaxUploadSize,
	})
	if err != nil {
		return nil, err
	}

	s.router = s.buildRouter(h)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute, // загрузка отчетов
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) buildRouter(h *handlers.Handler) *gin.Engine {
	// release для продакшена, можно переопределить через GIN_MODE
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(s.logger))
	router.Use(middleware.Logger(s.logger))
	router.Use(middleware.Metrics(s.metrics))
	router.Use(middleware.CORS())
	router.Use(middleware.Gzip())

	router.GET("/health", handlers.Health(s.health))
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	handlers.RegisterSwaggerRoutes(router)

	api := router.Group("", s.limiter.Handler())
	h.Register(api)

	return router
}

// Handler HTTP-обработчик сервера
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry кэш эталонных адресов
func (s *Server) Registry() *address.CachedRegistry {
	return s.registry
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	log.Printf("Starting HTTP server on %s...", s.httpServer.Addr)
	s.health.LogHealthStatus(context.Background())

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server on %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

// Shutdown останавливает HTTP сервер gracefully
// Повторный Start после Shutdown возвращает nil без запуска.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Initiating graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	log.Println("Graceful shutdown completed")
	return nil
}
