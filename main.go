package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/k4sper1love/school-service/internal/auth"
	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/handlers"
	"github.com/k4sper1love/school-service/internal/mail"
	"github.com/k4sper1love/school-service/internal/metrics"
	"github.com/k4sper1love/school-service/internal/repositories/postgres"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
	"github.com/k4sper1love/school-service/internal/validator"
	"github.com/k4sper1love/school-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewJSONLogger(os.Stdout, cfg.LogLevel)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured); without it every read goes to the database
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}
	cacheLayer := cache.NewLayer(cache.NewCacheHelper(redisClient, cache.DefaultPrefix), cfg.CacheTTL, logger)

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	if cfg.IsDevelopment() {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// Notification queue and dispatcher
	queue, err := events.NewQueue(cfg.Queue, logger)
	if err != nil {
		log.Fatalf("Failed to initialize notification queue: %v", err)
	}
	dispatcher := events.NewDispatcher(queue.Publisher, events.DispatcherConfig{
		Topic:      queue.Topic,
		BufferSize: cfg.Queue.BufferSize,
		Publishers: cfg.Queue.Publishers,
	}, logger, m)

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:       repoManager.GetRepository(),
		Cache:      cacheLayer,
		Dispatcher: dispatcher,
		Logger:     logger,
		Validator:  validator.NewBusinessValidator(),
	}, repoManager)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Authentication: local tokens first, then Casdoor when configured
	jwtManager := auth.NewJWTManager(cfg.JWT, repoManager.GetRepository().User())
	authenticators := auth.Chain{jwtManager}
	if cfg.Casdoor.Enabled() {
		authenticators = append(authenticators, auth.NewCasdoorAuthenticator(cfg.Casdoor, serviceManager.User()))
		logger.Info("Casdoor authentication enabled", "endpoint", cfg.Casdoor.Endpoint)
	}

	// In-process notification worker
	var worker *events.Worker
	workerDone := make(chan error, 1)
	if cfg.Queue.WorkerEnabled {
		mailer, err := mail.New(cfg.Mail, logger)
		if err != nil {
			log.Fatalf("Failed to initialize mailer: %v", err)
		}
		worker, err = events.NewWorker(events.WorkerConfig{Topic: queue.Topic, From: cfg.Mail.From},
			queue.Subscriber, mailer, repoManager.GetRepository().Notification(), cacheLayer, logger, m)
		if err != nil {
			log.Fatalf("Failed to initialize notification worker: %v", err)
		}
		go func() { workerDone <- worker.Run(context.Background()) }()
		select {
		case <-worker.Running():
			logger.Info("Notification worker running", "topic", queue.Topic, "backend", cfg.Queue.Backend)
		case err := <-workerDone:
			log.Fatalf("Notification worker failed to start: %v", err)
		}
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, authenticators, jwtManager, m, logger)
	router := handlerManager.NewRouter()

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Publish what is still buffered before the worker and the database go away
	if err := dispatcher.Close(ctx); err != nil {
		logger.Error("Failed to drain notification dispatcher", "error", err)
	}
	if worker != nil {
		if err := worker.Close(); err != nil {
			logger.Error("Failed to stop notification worker", "error", err)
		}
		if err := <-workerDone; err != nil {
			logger.Error("Notification worker exited with error", "error", err)
		}
	}
	if err := queue.Close(); err != nil {
		logger.Error("Failed to close notification queue", "error", err)
	}

	// Shutdown services (closes the database)
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Close Redis connection
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server exited")
}
