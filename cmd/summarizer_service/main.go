package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TubeDigest/internal/cache"
	"TubeDigest/internal/config"
	redisdb "TubeDigest/internal/database/redis"
	"TubeDigest/internal/llm"
	"TubeDigest/internal/models"
	"TubeDigest/internal/summarizer_service/api"
	"TubeDigest/internal/summarizer_service/service"
	"TubeDigest/internal/summarizer_service/store"
	"TubeDigest/internal/youtube"
	"TubeDigest/pkg/circuitbreaker"
	"TubeDigest/pkg/logger"
	"TubeDigest/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

const memoryCacheCapacity = 1024

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "internal/config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)

	// Create a single base logger for the service
	serviceLogger := logger.New("SummarizerService")

	// Make sure the yt-dlp binary is present before accepting work.
	ytdlp.MustInstall(context.Background(), nil)
	serviceLogger.Info("yt-dlp binary ready")

	// Choose storage backend: Redis when enabled, in-memory otherwise
	var (
		taskStore    store.TaskStore
		dataCache    cache.Cache
		healthCheck  func() error
		cacheBackend string
	)
	retention := time.Duration(cfg.Task.RetentionSeconds) * time.Second
	if cfg.Redis.Enabled {
		redisClient, err := redisdb.GetClient(&cfg.Redis)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
		}
		serviceLogger.Info("Successfully connected to Redis")
		taskStore = store.NewRedisTaskStore(redisClient, retention)
		dataCache = cache.NewRedisCache(redisClient, time.Duration(cfg.Transcript.CacheTTLSeconds)*time.Second)
		healthCheck = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisdb.HealthCheck(ctx)
		}
		cacheBackend = "redis"
	} else {
		memStore := store.NewMemoryTaskStore(retention)
		defer memStore.Close()
		taskStore = memStore
		memCache, err := cache.NewMemoryCache(memoryCacheCapacity, time.Duration(cfg.Transcript.CacheTTLSeconds)*time.Second)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create memory cache")
		}
		dataCache = memCache
		cacheBackend = "memory"
		serviceLogger.Info("Redis disabled, using in-memory storage")
	}

	// Circuit breaker guarding yt-dlp calls
	var breaker circuitbreaker.CircuitBreaker
	if cfg.Middleware.CircuitBreaker.Enabled {
		timeout, err := time.ParseDuration(cfg.Middleware.CircuitBreaker.Timeout)
		if err != nil {
			timeout = 30 * time.Second
		}
		breaker = circuitbreaker.New(
			cfg.Middleware.CircuitBreaker.FailureThreshold,
			cfg.Middleware.CircuitBreaker.SuccessThreshold,
			timeout,
		)
	}

	// Create components with logger injection
	fetcher := youtube.NewFetcher(youtube.FetcherConfig{
		Languages:       cfg.Transcript.Languages,
		FetchTimeout:    time.Duration(cfg.Transcript.FetchTimeout) * time.Second,
		MaxRetries:      cfg.Transcript.MaxRetries,
		RetryBaseDelay:  time.Duration(cfg.Transcript.RetryBaseDelayMSec) * time.Millisecond,
		TranscriptTTL:   time.Duration(cfg.Transcript.CacheTTLSeconds) * time.Second,
		InfoTTL:         time.Duration(cfg.Transcript.InfoCacheTTL) * time.Second,
		InfoFallbackTTL: time.Duration(cfg.Transcript.InfoFallbackTTL) * time.Second,
	}, dataCache, breaker, serviceLogger)

	summarizer, err := llm.NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKeys, serviceLogger)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create Gemini client")
	}

	queue := service.NewTaskQueue(cfg.Task.QueueWorkers, 64, serviceLogger)
	processor := service.NewProcessor(fetcher, summarizer, taskStore, serviceLogger)
	summarizerService := service.NewSummarizerService(service.Config{
		DefaultPrompt:   cfg.Summarizer.DefaultPrompt,
		MaxPromptLength: cfg.Summarizer.MaxPromptLength,
		PlaylistWorkers: cfg.Task.PlaylistWorkers,
	}, taskStore, queue, processor, fetcher, serviceLogger)

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	apiHandler := api.NewHandler(summarizerService, healthCheck, cacheBackend, serviceLogger)

	opts := api.RouterOptions{
		EnableHSTS:    cfg.Server.EnableHSTS,
		RequestLogger: serviceLogger,
	}
	if cfg.Middleware.RateLimiter.Enabled {
		opts.RateLimiter = ratelimiter.NewTokenBucket(cfg.Middleware.RateLimiter.Rate, cfg.Middleware.RateLimiter.Capacity)
	}
	router := api.SetupRouter(apiHandler, opts)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Server forced to shutdown")
	}

	queue.Shutdown()
	if err := summarizer.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Gemini client")
	}
	if cfg.Redis.Enabled {
		if err := redisdb.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from Redis")
		}
	}

	serviceLogger.Info("Server gracefully stopped")
}
