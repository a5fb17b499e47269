package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/gemini"
	"github.com/i474232898/genie-weather/internal/weather/providers"
)

var validate = validator.New()

const (
	msgInvalidPrompt = "Missing or invalid 'prompt'"
	msgUnavailable   = "Gemini is temporarily unavailable"
	msgServerError   = "Server error"
)

// forecastRequest is the POST /api/forecast body.
type forecastRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Model  string `json:"model"`
}

func (r *forecastRequest) bind(c *fiber.Ctx) error {
	if err := json.Unmarshal(c.Body(), r); err != nil {
		return err
	}
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Model = strings.TrimSpace(r.Model)
	return validate.Struct(r)
}

// RegisterRoutes wires the proxy handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, generator providers.Generator, log zerolog.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")

	api.Get("/models", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"models":  gemini.AllowedModels,
			"default": gemini.DefaultModel,
		})
	})

	api.Post("/forecast", func(c *fiber.Ctx) error {
		var req forecastRequest
		if err := req.bind(c); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidPrompt})
		}

		model := gemini.SafeModel(req.Model)
		reqLog := log.With().Str("request_id", requestID(c)).Str("model", model).Logger()

		result, err := generator.Generate(c.UserContext(), model, req.Prompt)
		if err != nil {
			status, body := errorResponse(err)
			reqLog.Error().Err(err).Int("status", status).Msg("forecast generation failed")
			return c.Status(status).JSON(body)
		}

		reqLog.Info().Str("city", result.City()).Msg("forecast generated")
		return c.JSON(result)
	})
}

// errorResponse maps generation failures onto the proxy's status codes and bodies.
func errorResponse(err error) (int, fiber.Map) {
	var (
		upstream    *providers.UpstreamError
		invalidJSON *providers.InvalidJSONError
		schema      *providers.SchemaError
	)
	switch {
	case errors.Is(err, providers.ErrMissingAPIKey):
		return fiber.StatusInternalServerError, fiber.Map{"error": err.Error()}
	case errors.Is(err, providers.ErrCircuitOpen):
		return fiber.StatusServiceUnavailable, fiber.Map{"error": msgUnavailable, "details": err.Error()}
	case errors.As(err, &upstream):
		return upstream.Status, fiber.Map{"error": upstream.Message, "details": upstream.Details}
	case errors.Is(err, providers.ErrNoText):
		return fiber.StatusInternalServerError, fiber.Map{"error": err.Error()}
	case errors.As(err, &invalidJSON):
		return fiber.StatusInternalServerError, fiber.Map{"error": invalidJSON.Error(), "raw": invalidJSON.Raw}
	case errors.As(err, &schema):
		return fiber.StatusInternalServerError, fiber.Map{"error": schema.Error(), "details": schema.Details}
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, fiber.Map{"error": msgServerError, "details": err.Error()}
	default:
		return fiber.StatusInternalServerError, fiber.Map{"error": msgServerError, "details": err.Error()}
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
