package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/slotwise/parking-service/config"
	"github.com/slotwise/parking-service/internal/consumer"
	"github.com/slotwise/parking-service/internal/handler"
	"github.com/slotwise/parking-service/internal/middleware"
	"github.com/slotwise/parking-service/internal/repository"
	"github.com/slotwise/parking-service/internal/service"
	"github.com/slotwise/parking-service/internal/sweeper"
	"github.com/slotwise/parking-service/pkg/cache"
	"github.com/slotwise/parking-service/pkg/database"
	"github.com/slotwise/parking-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ: publish domain events, consume catalog slot updates
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ consumer: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	slotConsumer := consumer.NewSlotConsumer(db)
	slotConsumer.Start(msgs)

	// Redis is optional; without it the slot listing just hits the DB
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	// Repositories
	slotRepo := repository.NewSlotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Services
	reservationSvc := service.NewReservationService(reservationRepo, slotRepo, publisher)
	billingSvc := service.NewBillingService(paymentRepo, reservationRepo, slotRepo, publisher)

	// Background penalty sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper.New(reservationRepo).Start(sweepCtx, cfg.SweepInterval)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "parking-service"})
	})

	api := e.Group("/api/v1")

	// Public slot listing, cached
	handler.NewSlotHandler(slotRepo).RegisterRoutes(api, cache.Middleware(rdb, "slots", cfg.SlotCacheTTL))

	// Everything else requires an identity token
	protected := e.Group("/api/v1", middleware.Identity(cfg.JWTSecret))
	handler.NewReservationHandler(reservationSvc).RegisterRoutes(protected)
	handler.NewBillingHandler(billingSvc, reservationSvc).RegisterRoutes(protected)

	log.Printf("Parking Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
