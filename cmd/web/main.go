package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/escribo/planos-web/config"
	"github.com/escribo/planos-web/internal/cache"
	"github.com/escribo/planos-web/internal/handlers"
	"github.com/escribo/planos-web/internal/middleware"
	"github.com/escribo/planos-web/internal/services"
	"github.com/escribo/planos-web/internal/web"
	"github.com/escribo/planos-web/pkg/generation"
	"github.com/escribo/planos-web/pkg/httpclient"
	"github.com/escribo/planos-web/pkg/jwt"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/metrics"
	"github.com/escribo/planos-web/pkg/profiling"
	"github.com/escribo/planos-web/pkg/retry"
	"github.com/escribo/planos-web/pkg/supabase"
	"github.com/escribo/planos-web/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// probeAuthProvider checks the provider health endpoint with retries. The
// result only feeds logs and the healthcheck.
func probeAuthProvider(ctx context.Context, client supabase.AuthClient, reachable *atomic.Bool) {
	probe := retry.ProbeConfig()
	probe.Retryable = func(err error) bool {
		return !errors.Is(err, supabase.ErrNotConfigured)
	}

	err := retry.Do(ctx, probe, "auth_provider_health", client.Health)
	if err != nil {
		logger.LogError(err, "Auth provider is not reachable")
		return
	}

	reachable.Store(true)
	logger.Info("Auth provider reachable")
}

// registerPageRoutes registers the server-rendered pages
func registerPageRoutes(
	router *gin.Engine,
	authLimiter, generationLimiter *middleware.RateLimiter,
	authService services.AuthServiceInterface,
	authHandler *handlers.AuthHandler,
	generatorHandler *handlers.GeneratorHandler,
) {
	bodyLimit := middleware.BodySizeLimitMiddleware(middleware.DefaultMaxBodySize)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, handlers.GeneratorPath)
	})

	router.GET("/login", authHandler.LoginPage)
	router.POST("/login", bodyLimit, authLimiter.MiddlewareWith(authHandler.LoginRateLimited), authHandler.Login)
	router.GET("/register", authHandler.RegisterPage)
	router.POST("/register", bodyLimit, authLimiter.MiddlewareWith(authHandler.RegisterRateLimited), authHandler.Register)
	router.POST("/logout", authHandler.Logout)

	router.GET(handlers.GeneratorPath, middleware.RequireSession(authService), generatorHandler.Page)
	router.POST(handlers.GeneratorPath,
		bodyLimit,
		generationLimiter.MiddlewareWith(generatorHandler.RateLimited),
		middleware.LoadSession(),
		generatorHandler.Submit,
	)
}

// registerAPIRoutes registers the JSON API for script clients
func registerAPIRoutes(
	group *gin.RouterGroup,
	generalLimiter, generationLimiter *middleware.RateLimiter,
	authService services.AuthServiceInterface,
	apiHandler *handlers.APIHandler,
) {
	group.GET("/session", generalLimiter.Middleware(), middleware.RequireAPISession(authService), apiHandler.Session)
	group.POST("/lesson-plans",
		generationLimiter.Middleware(),
		middleware.BodySizeLimitMiddleware(middleware.DefaultMaxBodySize),
		middleware.RequireAPISession(authService),
		apiHandler.CreateLessonPlan,
	)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Escribo lesson plan web",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Missing provider settings are reported, not fatal
	for _, warning := range cfg.Warnings() {
		logger.Error("Configuration error", zap.String("detail", warning))
	}

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.LogError(shutdownErr, "Failed to shutdown tracer")
		}
	}()

	// Initialize metrics with service name from config
	metrics.Init(cfg.Observability.ServiceName)
	metrics.RecordInfrastructureMetrics()

	stopProfiling, err := profiling.Start(cfg.Profiling, cfg.Observability.ServiceName, cfg.Server.AppEnv, cfg.Observability.ServiceVersion)
	if err != nil {
		logger.Fatal("Failed to start profiling", zap.Error(err))
	}
	defer stopProfiling()

	// Root context for background work; cancelled on shutdown
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// External clients
	authHTTPClient := httpclient.NewStandardClient()
	generationHTTPClient := httpclient.NewClientWithTimeout(time.Duration(cfg.Generation.TimeoutSeconds) * time.Second)

	authClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, authHTTPClient)
	generationClient := generation.NewClient(cfg.Generation.FunctionURL, cfg.Supabase.AnonKey, generationHTTPClient)

	var providerReachable atomic.Bool
	go probeAuthProvider(appCtx, authClient, &providerReachable)

	inspector := jwt.NewInspector(cfg.Supabase.JWTSecret)
	if !inspector.Verifies() {
		logger.Warn("SUPABASE_JWT_SECRET not set: access tokens are decoded but only the provider verifies them")
	}
	userCache := cache.NewUserCache(cfg.Session.UserCacheTTLSeconds)

	// Initialize services
	authService := services.NewAuthService(authClient, inspector, userCache)
	generatorService := services.NewGeneratorService(generationClient, cfg.Generation)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	generatorHandler := handlers.NewGeneratorHandler(generatorService)
	apiHandler := handlers.NewAPIHandler(generatorService)
	healthHandler := handlers.NewHealthHandler(providerReachable.Load)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.SessionsMiddleware(cfg.Session.CookieName, middleware.NewSessionStore(cfg.Session)))

	// Rate limiters, per client IP
	generalLimiter := middleware.NewRateLimiter(appCtx, 50, 100)      // 50 req/sec, burst of 100
	authLimiter := middleware.NewRateLimiter(appCtx, 0.2, 5)          // 1 req/5s, burst of 5 (credential stuffing)
	generationLimiter := middleware.NewRateLimiter(appCtx, 0.0333, 3) // 2 req/min, burst of 3 (generation is expensive)

	registerPageRoutes(router, authLimiter, generationLimiter, authService, authHandler, generatorHandler)

	// CORS applies only to the JSON API; pages are same-origin
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:"+cfg.Server.Port, "http://127.0.0.1:"+cfg.Server.Port)
	}

	api := router.Group("/api")
	if len(allowedOrigins) > 0 {
		api.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true, // session cookie
			MaxAge:           12 * time.Hour,
		}))
		// Preflight requests only need to reach the CORS middleware
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	}
	// Utility endpoints (not versioned)
	api.GET("/healthcheck", generalLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	registerAPIRoutes(api.Group("/v1"), generalLimiter, generationLimiter, authService, apiHandler)

	// Generation calls can take up to the configured timeout, so the write
	// deadline leaves room for it
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Duration(cfg.Generation.TimeoutSeconds)*time.Second + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopApp()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}

	logger.Info("Server exited")
}
