package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"ecommerce/internal/auth"
	"ecommerce/internal/config"
	"ecommerce/internal/database"
	"ecommerce/internal/handlers"
	"ecommerce/internal/middleware"
	"ecommerce/internal/models"
	"ecommerce/internal/outbox"
	"ecommerce/internal/repositories"
	"ecommerce/internal/services"
	"ecommerce/pkg/rabbitmq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	cfg := config.Load("payment-service", ":8002")

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	err = database.Migrate(db, migrationsFS, "migrations",
		&models.Payment{}, &models.OutboxMessage{})
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	mqClient := rabbitmq.Connect(rabbitmq.Config{URL: cfg.RabbitMQURL})
	defer mqClient.Close()

	verifier := auth.NewVerifier(cfg.JWTSecret)

	paymentRepo := repositories.NewGORMPaymentRepository(db)
	outboxRepo := repositories.NewGORMOutboxRepository(db)

	paymentService := services.NewPaymentService(paymentRepo)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// This process only enqueues event rows; no payment sender needed.
	dispatcher := outbox.NewDispatcher(outboxRepo, mqClient,
		outbox.WithInterval(cfg.OutboxInterval),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
	)

	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	go dispatcher.Run(dispatchCtx)

	app := fiber.New()
	app.Use(logger.New())

	handlers.RegisterHealthRoutes(app, cfg.AppName, db)

	api := app.Group("/api", middleware.AuthRequired(verifier))
	paymentHandler.RegisterRoutes(api)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting %s on %s", cfg.AppName, cfg.Port)
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	stopDispatcher()
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
