package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/akkupratap323/warehouse-inventory/api"
	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/middlewares"
	"github.com/akkupratap323/warehouse-inventory/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			// Deny all cross-origin requests when no allowlist is configured.
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = config.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.HeaderCorrelationId, middlewares.HeaderUserName)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.HeaderCorrelationId)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

// Optional rate limiting (recommended for production).
// Env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_WINDOW_SECONDS=60
// - RATE_LIMIT_MAX_REQUESTS=600
func rateLimitEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true")
}

func newRateLimiter(client *redis.Client) *middlewares.RateLimiter {
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return middlewares.NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
}

// newRouter builds the gin engine. With a nil runtime only /healthz answers
// and everything else gets 503.
func newRouter(logger *logrus.Logger, rt *workflow.Runtime, limiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.ReadinessGate(func() bool { return rt != nil }))
	r.Use(cors.New(corsConfig()))
	if limiter != nil {
		r.Use(limiter.RateLimitMiddleware)
	}
	r.Use(middlewares.UserNameMiddleware())
	if rt != nil {
		r.Use(middlewares.LoaderMiddleware(rt.Store))
	}
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	if rt != nil {
		api.NewHandler(rt.Engine, logger).RegisterRoutes(r)
	}
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	tp, shutdownTracing, err := config.SetupTracing(sigCtx)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "tracing"}).Error("tracing disabled: " + err.Error())
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until the store is ready, app endpoints return 503.
	var router atomic.Pointer[gin.Engine]
	router.Store(newRouter(logger, nil, nil))
	srv := &http.Server{
		Addr: ":" + port,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			router.Load().ServeHTTP(w, req)
		}),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	store, err := workflow.OpenStore(logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "store"}).Fatal(err.Error())
	}
	if db := config.GetDB(); db != nil {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			defer sqlDB.Close()
		}
	}
	if workflow.NeedsRedis() || rateLimitEnabled() {
		config.ConnectRedisWithRetry()
		defer config.CloseRedis()
	}

	rt, err := workflow.NewRuntime(sigCtx, store, logger, tp)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "runtime"}).Fatal(err.Error())
	}
	defer rt.Close()
	defer config.ClosePubSub()

	// Events are published after commit, off the request path.
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if rt.Dispatcher != nil {
		go rt.Dispatcher.Run(dispatcherCtx)
	}

	var limiter *middlewares.RateLimiter
	if rateLimitEnabled() {
		limiter = newRateLimiter(config.GetRedisDB())
	}
	router.Store(newRouter(logger, rt, limiter))

	logger.WithFields(logrus.Fields{
		"info":    "Connection Established",
		"storage": config.StorageDriver(),
		"lock":    config.LockBackend(),
		"cache":   config.SnapshotCache(),
		"events":  config.EventBroker(),
	}).Info("inventory api listening on :", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests first so in-flight writes can still hand off events.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
	cancelDispatcher()
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
