package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localeintel/pulse/internal/cache"
	"github.com/localeintel/pulse/internal/encoding"
	"github.com/localeintel/pulse/internal/errors"
	"github.com/localeintel/pulse/internal/middleware"
	"github.com/localeintel/pulse/internal/monitoring"
	"github.com/localeintel/pulse/internal/ratelimit"
	"github.com/localeintel/pulse/internal/scoring"
	"github.com/localeintel/pulse/internal/security"
	"github.com/localeintel/pulse/internal/types"
)

// serverConfig is the environment-driven configuration surface.
type serverConfig struct {
	port            string
	corsOrigins     []string
	redisAddr       string
	redisPassword   string
	redisDB         int
	rateLimitPerMin int
	cacheTTL        time.Duration
	tablesPath      string
}

func loadServerConfig() serverConfig {
	return serverConfig{
		port:            getEnvOrDefault("PORT", "8080"),
		corsOrigins:     strings.Split(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
		redisAddr:       os.Getenv("REDIS_ADDR"),
		redisPassword:   os.Getenv("REDIS_PASSWORD"),
		redisDB:         getEnvInt("REDIS_DB", 0),
		rateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 60),
		cacheTTL:        getEnvDuration("CACHE_TTL", 15*time.Minute),
		tablesPath:      os.Getenv("SCORING_TABLES"),
	}
}

// server bundles the scoring engine with its service machinery.
type server struct {
	config      serverConfig
	engine      *scoring.Engine
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	cache       *cache.Cache
	redisClient *ratelimit.RedisClient
	limiter     *ratelimit.RateLimiter
	compression *middleware.CompressionMiddleware
	security    *security.SecurityMiddleware
	memory      *monitoring.MemoryMonitor
	alerts      *monitoring.AlertManager
}

func newServer(cfg serverConfig, logger *monitoring.Logger) (*server, error) {
	// Scoring tables: built-in defaults unless an override file is given.
	var tables *scoring.Tables
	if cfg.tablesPath != "" {
		loaded, err := scoring.LoadTables(cfg.tablesPath)
		if err != nil {
			return nil, errors.NewConfigurationError("failed to load scoring tables", err)
		}
		tables = loaded
		slog.Info("Loaded scoring tables override", "path", cfg.tablesPath)
	}

	metrics := monitoring.NewMetrics()

	// Redis is optional; the rate limiter degrades to in-memory without it.
	redisClient, err := ratelimit.NewRedisClient(cfg.redisAddr, cfg.redisPassword, cfg.redisDB)
	if err != nil {
		slog.Warn("Redis connection failed, rate limiting degrades to in-memory", "error", err)
	}

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:   cfg.rateLimitPerMin,
		BurstMultiplier: 2,
		CleanupInterval: time.Hour,
	}, metrics)

	return &server{
		config:      cfg,
		engine:      scoring.NewEngine(tables),
		metrics:     metrics,
		logger:      logger,
		cache:       cache.NewCache(cfg.cacheTTL),
		redisClient: redisClient,
		limiter:     limiter,
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		security:    security.NewSecurityMiddleware(security.DefaultSecurityConfig()),
		memory:      monitoring.NewMemoryMonitor(metrics, logger, 15*time.Second),
		alerts:      monitoring.NewAlertManager(metrics, logger, 30*time.Second),
	}, nil
}

func (s *server) close() {
	s.cache.Close()
	s.limiter.Close()
	errors.SafeClose(s.redisClient, "redis client")
}

func setupRouter(s *server) *gin.Engine {
	r := gin.New()

	securityConfig := security.DefaultSecurityConfig()
	if err := r.SetTrustedProxies(securityConfig.TrustedProxies); err != nil {
		slog.Warn("Failed to set trusted proxies", "error", err)
	}

	// Compression first so every later write goes through the wrapped writer.
	r.Use(s.compression.Handler())
	r.Use(requestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  s.config.corsOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	r.Use(security.SecurityHeadersMiddleware())
	r.Use(s.security.RequestTimeout())
	r.Use(s.security.ValidateContentType())
	r.Use(s.security.BodySizeLimit())
	r.Use(s.limiter.IPRateLimitMiddleware())
	r.Use(s.cache.Middleware(s.metrics, "/score"))

	r.POST("/score", s.handleScore)

	r.GET("/health", func(c *gin.Context) {
		components := gin.H{"engine": "ok", "cache": "ok"}
		if s.redisClient.IsEnabled() {
			if err := s.redisClient.HealthCheck(c.Request.Context()); err != nil {
				components["redis"] = "unavailable"
			} else {
				components["redis"] = "ok"
			}
		} else {
			// The limiter falls back to in-memory, so a missing Redis
			// never degrades overall health.
			components["redis"] = "disabled"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"version":    "1.0.0",
			"timestamp":  time.Now().Format(time.RFC3339),
			"components": components,
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.cache.Stats())
	})

	r.GET("/tables", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.Tables())
	})

	r.GET("/memory", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.memory.GetStats())
	})

	r.GET("/alerts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"alerts":    s.alerts.ActiveAlerts(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.GET("/pools/compression", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "compression",
			"stats": s.compression.GetStats(),
		})
	})

	r.GET("/pools/redis", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "redis",
			"stats": s.redisClient.GetPoolStats(),
		})
	})

	r.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())
	r.POST("/ratelimit/reset/:ip", s.limiter.HandleResetIP())
	r.POST("/ratelimit/reset", s.limiter.HandleResetAll())

	// Performance profiling endpoints (development only)
	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		r.GET("/debug/pprof/*filepath", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}

	return r
}

// scoreEnvelope is the response shape for POST /score. Identical scan
// payloads replay the same cached envelope, so the report ID names the
// computation rather than the HTTP request.
type scoreEnvelope struct {
	ReportID       string                   `json:"report_id"`
	Structured     scoring.StructuredResult `json:"structured"`
	Legacy         scoring.LegacyFields     `json:"legacy"`
	RevenueProxies scoring.RevenueProxies   `json:"revenue_proxies"`
}

func (s *server) handleScore(c *gin.Context) {
	start := time.Now()

	var scan types.ScanContext
	if err := c.ShouldBindJSON(&scan); err != nil {
		c.Error(errors.NewValidationError("invalid scan context payload", err.Error()))
		c.Abort()
		return
	}

	if err := security.ValidateOrgLogin(scan.OrgLogin); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	result := s.engine.Score(&scan)

	if result.Stage1Passed {
		s.metrics.RecordScore(string(result.OrgMaturityLevel))
	} else {
		s.metrics.RecordStage1Rejection(result.Stage1Label)
		s.logger.Stage1Logger(scan.OrgLogin, result.Stage1Label, len(scan.Signals))
	}

	envelope := scoreEnvelope{
		ReportID:       uuid.NewString(),
		Structured:     result.Structured(),
		Legacy:         scoring.MapToLegacy(result),
		RevenueProxies: scoring.ComputeRevenueProxies(&scan),
	}

	payload, err := encoding.MarshalJSON(envelope)
	if err != nil {
		c.Error(errors.NewInternalError("failed to encode scoring result", err))
		c.Abort()
		return
	}

	s.logger.ScoringLogger(scan.OrgLogin, string(result.OrgMaturityLevel),
		result.PIntent, result.ConfidencePercent, len(result.EnrichedSignals),
		time.Since(start), false)

	c.Data(http.StatusOK, "application/json", payload)
}

// requestIDMiddleware tags every request so log lines and error responses
// can be correlated. Callers may supply their own X-Request-ID.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func main() {
	appLogger := monitoring.NewLogger(monitoring.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")))
	slog.SetDefault(appLogger.Logger)

	gin.SetMode(getEnvOrDefault("GIN_MODE", gin.ReleaseMode))

	cfg := loadServerConfig()

	srv, err := newServer(cfg, appLogger)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	r := setupRouter(srv)

	// Background monitors run until shutdown.
	monitorCtx, stopMonitors := context.WithCancel(context.Background())
	go srv.memory.Start(monitorCtx)
	go srv.alerts.Start(monitorCtx)

	httpServer := &http.Server{
		Addr:    ":" + cfg.port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopMonitors()
	srv.close()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return value
}
