package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	readinessTimeout = 2 * time.Second
	welcomeMessage   = "Welcome to the AI-Powered Outreach Pipeline API!"
)

// BrokerStatus reports message broker connectivity.
type BrokerStatus interface {
	Connected() bool
}

// Dependencies are the backing services checked by /readyz. Redis and the
// broker are optional.
type Dependencies struct {
	DB     *sql.DB
	Redis  *redis.Client
	Broker BrokerStatus
}

func RegisterHealthRoutes(app fiber.Router, deps Dependencies) {
	app.Get("/", HomeHandler())
	app.Get("/livez", LivezHandler())
	app.Get("/readyz", ReadyzHandler(deps))
}

func HomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString(welcomeMessage)
	}
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}

func ReadyzHandler(deps Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		checks := fiber.Map{}
		ready := true

		record := func(name string, healthy bool) {
			if healthy {
				checks[name] = "ok"
				return
			}
			checks[name] = "down"
			ready = false
		}

		record("database", deps.DB != nil && deps.DB.PingContext(ctx) == nil)
		if deps.Redis != nil {
			record("redis", deps.Redis.Ping(ctx).Err() == nil)
		}
		if deps.Broker != nil {
			record("rabbitmq", deps.Broker.Connected())
		}

		status := "ready"
		statusCode := fiber.StatusOK
		if !ready {
			status = "not_ready"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
