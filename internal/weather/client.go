package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// ForecastPath is the proxy route serving forecasts.
const ForecastPath = "/api/forecast"

// maxResponseBytes bounds how much of a proxy reply is read.
const maxResponseBytes = 1 << 20

// Doer issues a request built by buildRequest, possibly more than once.
type Doer interface {
	Do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error)
}

// ForecastRequest is the body posted to the proxy.
type ForecastRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// Client asks the forecast proxy for a structured forecast.
type Client struct {
	endpoint string
	doer     Doer
	log      zerolog.Logger
}

// NewClient builds a Client posting to backendURL + ForecastPath.
func NewClient(backendURL string, doer Doer, log zerolog.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(backendURL), "/") + ForecastPath,
		doer:     doer,
		log:      log,
	}
}

// GetForecast validates loc, sends the prompt with the optional model and returns the
// proxy's object unmodified. Failures are *Error values of one of the five kinds.
func (c *Client) GetForecast(ctx context.Context, loc Location, model string) (Result, error) {
	loc, err := loc.normalize()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ForecastRequest{Prompt: BuildPrompt(loc), Model: strings.TrimSpace(model)})
	if err != nil {
		return nil, fmt.Errorf("encode forecast request: %w", err)
	}

	c.log.Debug().Str("location", loc.String()).Str("model", model).Msg("requesting forecast")

	resp, err := c.doer.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, newError(KindNetwork, "NETWORK_ERROR", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newError(KindInvalidServerResponse, "INVALID_JSON_FROM_SERVER", resp.StatusCode, err)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, newError(KindInvalidServerResponse, "INVALID_JSON_FROM_SERVER", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindServer, serverMessage(data, resp.StatusCode), resp.StatusCode, nil)
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return nil, newError(KindUnexpectedResponseShape, "UNEXPECTED_RESPONSE_SHAPE", resp.StatusCode, nil)
	}
	return Result(obj), nil
}

// serverMessage extracts the proxy's error text: a string "error", or "error.message".
func serverMessage(data any, status int) string {
	if obj, ok := data.(map[string]any); ok {
		switch e := obj["error"].(type) {
		case string:
			if strings.TrimSpace(e) != "" {
				return e
			}
		case map[string]any:
			if msg, ok := e["message"].(string); ok && strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("Server returned an error (%d). Please try again", status)
}
