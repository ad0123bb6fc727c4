package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RegisterHealthRoutes adds the unauthenticated liveness and readiness
// probes used by the container platform.
func RegisterHealthRoutes(app *fiber.App, serviceName string, db *gorm.DB) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})
}
