package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/genie-weather/internal/common"
	"github.com/i474232898/genie-weather/internal/gemini"
	"github.com/i474232898/genie-weather/internal/weather"
)

const maxUpstreamBytes = 4 << 20

var (
	// ErrMissingAPIKey is returned when the proxy has no Gemini credential.
	ErrMissingAPIKey = errors.New("Missing GOOGLE_API_KEY on the server")
	// ErrNoText is returned when the reply carries no candidate text.
	ErrNoText = errors.New("No text generated from Gemini")
)

// Generator produces a forecast object from a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (weather.Result, error)
}

// UpstreamError is a non-2xx reply from Gemini, passed through to the caller.
type UpstreamError struct {
	Status  int
	Message string
	Details any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini upstream %d: %s", e.Status, e.Message)
}

// InvalidJSONError means the generated text was not JSON after fence stripping.
type InvalidJSONError struct {
	Raw string
	Err error
}

func (e *InvalidJSONError) Error() string { return "Gemini returned invalid JSON" }

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// SchemaError means the generated JSON does not describe a forecast.
type SchemaError struct {
	Details string
	Err     error
}

func (e *SchemaError) Error() string { return "Gemini response did not match the forecast schema" }

func (e *SchemaError) Unwrap() error { return e.Err }

// GeminiProvider calls generateContent with the forecast response schema.
type GeminiProvider struct {
	name     string
	baseURL  string
	apiKey   string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	validate *validator.Validate
	log      zerolog.Logger
}

func NewGeminiProvider(client *http.Client, baseURL, apiKey string, log zerolog.Logger) *GeminiProvider {
	if baseURL == "" {
		baseURL = gemini.DefaultBaseURL
	}
	return &GeminiProvider{
		name:    "gemini",
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      1,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
		},
		circuit:  newBreaker("gemini"),
		validate: weather.NewValidator(),
		log:      log,
	}
}

func (p *GeminiProvider) Name() string {
	return p.name
}

// Generate asks model (or the default when not allowed) for a forecast and returns
// the parsed object once it validates against the forecast schema.
func (p *GeminiProvider) Generate(ctx context.Context, model, prompt string) (weather.Result, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	model = gemini.SafeModel(model)

	payload, err := json.Marshal(gemini.NewTextRequest(prompt, ForecastSchema()))
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	endpoint := gemini.GenerateURL(p.baseURL, model)

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(gemini.APIKeyHeader, p.apiKey)
		return req, nil
	}

	start := time.Now()
	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBytes))
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	p.log.Debug().Str("model", model).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("gemini replied")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp.StatusCode, body)
	}

	var data gemini.GenerateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, ErrNoText
	}
	text := data.FirstText()
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	cleaned := common.StripCodeFences(text)
	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &InvalidJSONError{Raw: cleaned, Err: err}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, &SchemaError{Details: "top-level value is not an object"}
	}

	result := weather.Result(obj)
	forecast, err := result.Decode()
	if err != nil {
		return nil, &SchemaError{Details: err.Error(), Err: err}
	}
	if err := p.validate.Struct(forecast); err != nil {
		return nil, &SchemaError{Details: err.Error(), Err: err}
	}
	return result, nil
}

// upstreamError prefers error.message, then a string error, then a generic text.
func upstreamError(status int, body []byte) *UpstreamError {
	var details any
	if err := json.Unmarshal(body, &details); err != nil {
		details = nil
	}

	msg := fmt.Sprintf("Gemini API error (%d)", status)
	if obj, ok := details.(map[string]any); ok {
		switch e := obj["error"].(type) {
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				msg = m
			}
		case string:
			if e != "" {
				msg = e
			}
		}
	}
	return &UpstreamError{Status: status, Message: msg, Details: details}
}
