package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/companyhub/company-api/internal/auth"
	"github.com/companyhub/company-api/internal/company"
	"github.com/companyhub/company-api/internal/config"
	"github.com/companyhub/company-api/internal/database"
	"github.com/companyhub/company-api/internal/email"
	httpServer "github.com/companyhub/company-api/internal/http"
	"github.com/companyhub/company-api/internal/logging"
	"github.com/companyhub/company-api/internal/metrics"
	"github.com/companyhub/company-api/internal/ratelimit"
	"github.com/companyhub/company-api/internal/user"
)

// @title           Company API
// @version         1.0
// @description     REST API with OTP-verified registration, token auth and company management.

// @contact.name   API Support
// @contact.email  support@example.com

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	authRepo := auth.NewRepository(db)
	companyRepo := company.NewRepository(db)
	tokenStore := auth.NewRedisTokenStore(redisClient)

	// Guest auth routes share one fixed-window limiter
	guestLimiter := ratelimit.NewRedisLimiter(redisClient, cfg.Auth.GuestRateLimit, time.Minute)

	// Initialize token issuer
	issuer, err := auth.NewIssuer(cfg.Auth.PasetoKey, tokenStore, cfg.Auth.TokenDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Mail.SMTPHost,
		cfg.Mail.SMTPPort,
		cfg.Mail.SMTPUser,
		cfg.Mail.SMTPPassword,
		cfg.Mail.FromAddress,
		cfg.Mail.FromName,
		cfg.App.Name,
	)

	// Initialize auth service
	authService := auth.NewService(userRepo, authRepo, emailService, logger)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(authService, issuer)
	authMiddleware := auth.NewMiddleware(issuer)
	companyHandler := company.NewHandler(companyRepo)

	// Initialize Prometheus registry
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	// Initialize router
	router := httpServer.NewRouter(cfg, httpServer.RouterDeps{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		CompanyHandler: companyHandler,
		GuestLimiter:   guestLimiter,
		Registry:       registry,
	}, logger)

	// Initialize HTTP server
	server := httpServer.NewServer(&cfg.Server, router, logger)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
