package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campus-shuttle/service-shuttle/internal/application"
	"github.com/campus-shuttle/service-shuttle/internal/config"
	bookingDomain "github.com/campus-shuttle/service-shuttle/internal/domain/booking"
	"github.com/campus-shuttle/service-shuttle/internal/domain/discovery"
	shuttleEvents "github.com/campus-shuttle/service-shuttle/internal/events"
	"github.com/campus-shuttle/service-shuttle/internal/handler"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/database"
	"github.com/campus-shuttle/service-shuttle/internal/platform/health"
	"github.com/campus-shuttle/service-shuttle/internal/platform/kafka"
	"github.com/campus-shuttle/service-shuttle/internal/platform/logger"
	"github.com/campus-shuttle/service-shuttle/internal/platform/metrics"
	"github.com/campus-shuttle/service-shuttle/internal/platform/middleware"
	"github.com/campus-shuttle/service-shuttle/internal/repository"
)

const serviceName = "service-shuttle"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.StopModel{},
			&repository.RouteModel{},
			&repository.RouteStopModel{},
			&repository.TransferPointModel{},
			&repository.BookingModel{},
			&repository.TransactionModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Metrics
	m := metrics.New(log)
	if sqlDB, err := db.DB(); err == nil {
		m.StartDBStatsCollector(sqlDB, 15*time.Second)
	}
	defer m.Shutdown()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTokenTTL,
		cfg.JWTConfig.RefreshTokenTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	transactionRepo := repository.NewGormTransactionRepository(db)
	catalogRepo := repository.NewCachedCatalogRepository(
		repository.NewGormCatalogRepository(db), cfg.CatalogCacheTTL, log,
	)
	transactor := repository.NewGormTransactor(db)

	// Route discovery and pricing
	engine := discovery.NewEngine(cfg.Discovery)
	pricingStrategy := bookingDomain.NewStandardPricingStrategy()

	// Initialize application services
	catalogService := application.NewCatalogService(catalogRepo, engine, pricingStrategy, cfg.Campus, m, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		userRepo,
		catalogRepo,
		engine,
		pricingStrategy,
		transactor,
		kafkaProducer,
		m,
		log,
	)
	authService := application.NewAuthService(userRepo, jwtManager, cfg.AdminSignupCode, log)
	walletService := application.NewWalletService(transactionRepo, userRepo, transactor, kafkaProducer, log)
	adminService := application.NewAdminService(userRepo, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + serviceName
	paymentConsumer := shuttleEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		walletService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	catalogHandler := handler.NewCatalogHandler(catalogService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	authHandler := handler.NewAuthHandler(authService)
	walletHandler := handler.NewWalletHandler(walletService)
	adminHandler := handler.NewAdminHandler(bookingService, adminService)

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	// Register routes
	catalogHandler.RegisterRoutes(&router.RouterGroup, limiter.Handler())
	authHandler.RegisterRoutes(&router.RouterGroup, jwtManager, limiter.Handler())
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	walletHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
