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
	"go.uber.org/zap"

	"github.com/sw3-barbershop/service-reservation/internal/application"
	"github.com/sw3-barbershop/service-reservation/internal/config"
	"github.com/sw3-barbershop/service-reservation/internal/events"
	"github.com/sw3-barbershop/service-reservation/internal/handler"
	"github.com/sw3-barbershop/service-reservation/internal/repository"
	"github.com/sw3-barbershop/service-reservation/pkg/database"
	"github.com/sw3-barbershop/service-reservation/pkg/kafka"
	"github.com/sw3-barbershop/service-reservation/pkg/logger"
	"github.com/sw3-barbershop/service-reservation/pkg/metrics"
	"github.com/sw3-barbershop/service-reservation/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.ReservationModel{},
			&repository.BarberModel{},
			&repository.BarberServiceModel{},
			&repository.ServiceModel{},
			&repository.WorkShiftModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.URL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize metrics
	collector := metrics.NewCollector("reservation")

	// Initialize repositories
	reservationRepo := repository.NewGormReservationRepository(db)
	mirrorStore := repository.NewGormMirrorStore(db)

	// Initialize application services
	reservationService := application.NewReservationService(
		reservationRepo,
		mirrorStore,
		kafkaProducer,
		collector,
		log,
	)
	mirrorService := application.NewMirrorService(mirrorStore, collector, log)

	// Initialize and start the catalog event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogConsumer := events.NewCatalogEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.ConsumerGroupID,
		mirrorService,
		log,
	)
	defer func() { _ = catalogConsumer.Close() }()

	go func() {
		log.Info("starting catalog event consumer")
		if err := catalogConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("catalog event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handler
	reservationHandler := handler.NewReservationHandler(reservationService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.HTTPMetrics(collector.HTTPRequests))

	// Health and metrics endpoints
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "service-reservation"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Register routes
	reservationHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
