package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/cache"
	"github.com/campus-gigs/marketplace-service/internal/config"
	"github.com/campus-gigs/marketplace-service/internal/events"
	"github.com/campus-gigs/marketplace-service/internal/handlers"
	"github.com/campus-gigs/marketplace-service/internal/mail"
	"github.com/campus-gigs/marketplace-service/internal/metrics"
	"github.com/campus-gigs/marketplace-service/internal/repositories/postgres"
	"github.com/campus-gigs/marketplace-service/internal/security"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/storage"
	"github.com/campus-gigs/marketplace-service/internal/utils"
	"github.com/campus-gigs/marketplace-service/internal/validator"
	"github.com/campus-gigs/marketplace-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Initialize database
	db, err := pkg.NewDatabaseProvider(cfg, slogLogger).Get(startCtx)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	encryptor, err := security.NewEncryptor(cfg.EncryptionKey, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize message encryption: %v", err)
	}
	encryptor.OnFailure(metrics.DecryptFailures.Inc)

	publisher, err := newPublisher(cfg, redisClient, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize notification push: %v", err)
	}

	media, err := storage.NewLocalMediaStore(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}

	jwtService := auth.NewJWTService([]byte(cfg.JWTSecret), cfg.JWTTTL)
	verifiers := []auth.TokenVerifier{jwtService}
	if cfg.AuthProvider == config.AuthProviderCasdoor {
		verifiers = append(verifiers, auth.NewCasdoorVerifier(cfg.Casdoor))
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:        repo,
		Validator:   validator.NewBusinessValidator(),
		Logger:      slogLogger,
		Publisher:   publisher,
		Cipher:      encryptor,
		Mailer:      mail.NewMailer(cfg.Mail),
		Media:       media,
		Tokens:      jwtService,
		Codes:       services.NewCodeStore(cache.NewCacheManager(redisClient)),
		TestingMode: cfg.TestingMode,
		Production:  cfg.IsProduction(),
	})
	if err := serviceManager.Initialize(startCtx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, repo.User(), logger, verifiers...)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSOrigins)
	handlerManager.SetupRoutes(router, cfg.Media)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the publisher and the database
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}

// newPublisher picks the realtime push transport for notifications.
func newPublisher(cfg *config.Config, redisClient *redis.Client, log *slog.Logger) (events.EventPublisher, error) {
	switch cfg.Push.Backend {
	case config.PushBackendKafka:
		return events.NewKafkaPublisher(cfg.Push.KafkaBrokers, cfg.Push.NotificationTopic, log)
	case config.PushBackendRedis:
		if redisClient == nil {
			log.Warn("Redis push selected but Redis is unavailable, push disabled")
			return events.NoopPublisher{}, nil
		}
		return events.NewRedisPublisher(redisClient, log), nil
	default:
		return events.NoopPublisher{}, nil
	}
}
