package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/weather/providers"
)

// NewApp builds the proxy application with its middleware and routes.
func NewApp(generator providers.Generator, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "genie-weather",
		DisableStartupMessage: true,
		BodyLimit:             1 << 20,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          90 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format: "${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: log,
	}))
	app.Use(recover.New())

	RegisterRoutes(app, generator, log)
	return app
}
