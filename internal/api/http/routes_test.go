package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/gemini"
	"github.com/i474232898/genie-weather/internal/weather"
	"github.com/i474232898/genie-weather/internal/weather/providers"
)

type fakeGenerator struct {
	result weather.Result
	err    error
	panics bool

	calls  int
	model  string
	prompt string
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (weather.Result, error) {
	if f.panics {
		panic("boom")
	}
	f.calls++
	f.model = model
	f.prompt = prompt
	return f.result, f.err
}

func doJSON(t *testing.T, gen providers.Generator, method, path, body string) (int, map[string]any) {
	t.Helper()
	app := NewApp(gen, zerolog.Nop())

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("response is not a JSON object: %s", raw)
		}
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	status, body := doJSON(t, &fakeGenerator{}, http.MethodGet, "/health", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body)
	}
}

func TestModels(t *testing.T) {
	status, body := doJSON(t, &fakeGenerator{}, http.MethodGet, "/api/models", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	if body["default"] != gemini.DefaultModel {
		t.Fatalf("expected default %q, got %v", gemini.DefaultModel, body["default"])
	}
	models, _ := body["models"].([]any)
	if len(models) != len(gemini.AllowedModels) {
		t.Fatalf("expected %d models, got %v", len(gemini.AllowedModels), body["models"])
	}
}

func TestForecastPromptValidation(t *testing.T) {
	for _, payload := range []string{``, `{}`, `{"prompt":"   "}`, `{"prompt":42}`, `not json`} {
		gen := &fakeGenerator{}
		status, body := doJSON(t, gen, http.MethodPost, "/api/forecast", payload)
		if status != http.StatusBadRequest {
			t.Fatalf("payload %q: expected status %d, got %d", payload, http.StatusBadRequest, status)
		}
		if body["error"] != msgInvalidPrompt {
			t.Fatalf("payload %q: unexpected error %v", payload, body["error"])
		}
		if gen.calls != 0 {
			t.Fatalf("payload %q: generator should not be called", payload)
		}
	}
}

func TestForecastSuccessAndModelAllowList(t *testing.T) {
	cases := map[string]string{
		`{"prompt":"Paris?"}`:                                 gemini.DefaultModel,
		`{"prompt":"Paris?","model":"gemini-2.5-pro"}`:        gemini.ModelPro,
		`{"prompt":"Paris?","model":"gemini-2.5-flash-lite"}`: gemini.ModelFlashLite,
		`{"prompt":"Paris?","model":"gpt-4o"}`:                gemini.DefaultModel,
	}
	for payload, want := range cases {
		gen := &fakeGenerator{result: weather.Result{"currentWeather": map[string]any{"city": "Paris"}}}
		status, body := doJSON(t, gen, http.MethodPost, "/api/forecast", payload)
		if status != http.StatusOK {
			t.Fatalf("payload %s: expected status %d, got %d (%v)", payload, http.StatusOK, status, body)
		}
		if gen.model != want {
			t.Fatalf("payload %s: expected model %q, got %q", payload, want, gen.model)
		}
		if gen.prompt != "Paris?" {
			t.Fatalf("payload %s: unexpected prompt %q", payload, gen.prompt)
		}
		if weather.Result(body).City() != "Paris" {
			t.Fatalf("payload %s: unexpected body %v", payload, body)
		}
	}
}

func TestForecastErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
		extra  string
	}{
		{"missing key", providers.ErrMissingAPIKey, http.StatusInternalServerError, "Missing GOOGLE_API_KEY on the server", ""},
		{"breaker open", fmt.Errorf("%w: open", providers.ErrCircuitOpen), http.StatusServiceUnavailable, msgUnavailable, "details"},
		{"upstream", &providers.UpstreamError{Status: http.StatusTooManyRequests, Message: "quota exceeded", Details: map[string]any{"error": "x"}}, http.StatusTooManyRequests, "quota exceeded", "details"},
		{"no text", providers.ErrNoText, http.StatusInternalServerError, "No text generated from Gemini", ""},
		{"invalid json", &providers.InvalidJSONError{Raw: "nope"}, http.StatusInternalServerError, "Gemini returned invalid JSON", "raw"},
		{"schema", &providers.SchemaError{Details: "city missing"}, http.StatusInternalServerError, "Gemini response did not match the forecast schema", "details"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, msgServerError, "details"},
		{"other", errors.New("dial tcp: refused"), http.StatusInternalServerError, msgServerError, "details"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, &fakeGenerator{err: tc.err}, http.MethodPost, "/api/forecast", `{"prompt":"Paris?"}`)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
			if body["error"] != tc.msg {
				t.Fatalf("expected error %q, got %v", tc.msg, body["error"])
			}
			if tc.extra != "" {
				if _, ok := body[tc.extra]; !ok {
					t.Fatalf("expected %q in body %v", tc.extra, body)
				}
			}
		})
	}
}

func TestPanicIsRecovered(t *testing.T) {
	status, _ := doJSON(t, &fakeGenerator{panics: true}, http.MethodPost, "/api/forecast", `{"prompt":"Paris?"}`)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, status)
	}
}

func TestCORSAndRequestID(t *testing.T) {
	app := NewApp(&fakeGenerator{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
}
