package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/i474232898/genie-weather/internal/weather"
)

const testForecast = `{"currentWeather":{"city":"Paris","temperature":18,"temperatureUnit":"Celsius","conditions":"Cloudy"},` +
	`"dailyForecast":[{"day":"Monday","high":20,"low":12,"conditions":"Sunny"},{"day":"Tuesday","high":17,"low":10,"conditions":"Rain"}],` +
	`"clothingSuggestion":"Light jacket","activitySuggestion":"Walk along the Seine"}`

type cliTestEnv struct {
	storePath string
	requests  int32
}

func setupCLITestEnv(t *testing.T, status int, body string) *cliTestEnv {
	t.Helper()
	env := &cliTestEnv{storePath: filepath.Join(t.TempDir(), "state.db")}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&env.requests, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GENIE_BACKEND_URL", srv.URL)
	t.Setenv("GENIE_STORE_PATH", env.storePath)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GENIE_HOME_ADDRESS", "")
	t.Setenv("RETRY_COUNT", "0")
	t.Setenv("COOLDOWN", "10ms")
	t.Setenv("LOG_LEVEL", "disabled")
	return env
}

func runCLI(t *testing.T, args []string, stdin string) (string, error) {
	t.Helper()
	ctx := newCommandContext()
	cmd := newRootCommand(ctx)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	if cerr := ctx.close(); err == nil {
		err = cerr
	}
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}

func TestForecastCommandPrintsForecast(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, testForecast)

	out, err := runCLI(t, []string{"forecast", "Paris"}, "")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	requireContains(t, out, "Paris")
	requireContains(t, out, "18°C")
	requireContains(t, out, "Tuesday")
	requireContains(t, out, "Light jacket")
	if n := atomic.LoadInt32(&env.requests); n != 1 {
		t.Fatalf("expected 1 backend request, got %d", n)
	}

	// The last city is restored when no location is given.
	out, err = runCLI(t, []string{"forecast", "--json"}, "")
	if err != nil {
		t.Fatalf("forecast from last city: %v", err)
	}
	requireContains(t, out, `"city": "Paris"`)
}

func TestForecastCommandFailureShowsGenericMessage(t *testing.T) {
	setupCLITestEnv(t, http.StatusInternalServerError, `{"error":"quota exceeded"}`)

	out, err := runCLI(t, []string{"forecast", "Paris"}, "")
	if err == nil {
		t.Fatalf("expected failure exit")
	}
	requireContains(t, out, weather.FailureMessage)
	if strings.Contains(out, "quota exceeded") {
		t.Fatalf("server detail leaked into output: %s", out)
	}
}

func TestForecastCommandNeedsLocation(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, testForecast)

	if _, err := runCLI(t, []string{"forecast"}, ""); err == nil {
		t.Fatalf("expected an error without any location")
	}
	if _, err := runCLI(t, []string{"forecast", "--lat", "48.85"}, ""); err == nil {
		t.Fatalf("expected --lat without --lon to fail")
	}
	if n := atomic.LoadInt32(&env.requests); n != 0 {
		t.Fatalf("expected no backend requests, got %d", n)
	}
}

func TestForecastCommandInteractive(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, testForecast)

	out, err := runCLI(t, []string{"forecast", "-i"}, "\n48.85, 2.35\nquit\n")
	if err != nil {
		t.Fatalf("interactive: %v", err)
	}
	requireContains(t, out, "location> ")
	requireContains(t, out, "Paris")
	if n := atomic.LoadInt32(&env.requests); n != 1 {
		t.Fatalf("expected 1 backend request, got %d", n)
	}
}

func TestModelSetShowAndClear(t *testing.T) {
	setupCLITestEnv(t, http.StatusOK, testForecast)

	out, err := runCLI(t, []string{"model", "set", "gemini-2.5-pro"}, "")
	if err != nil {
		t.Fatalf("model set: %v", err)
	}
	requireContains(t, out, "gemini-2.5-pro")

	out, err = runCLI(t, []string{"model", "show"}, "")
	if err != nil {
		t.Fatalf("model show: %v", err)
	}
	requireContains(t, out, "Override:  gemini-2.5-pro")
	requireContains(t, out, "(not probed yet)")

	if _, err := runCLI(t, []string{"model", "set", "gpt-4o"}, ""); err == nil {
		t.Fatalf("expected unknown model to be rejected")
	}

	if _, err := runCLI(t, []string{"model", "set", "auto"}, ""); err != nil {
		t.Fatalf("model set auto: %v", err)
	}
	out, err = runCLI(t, []string{"model", "show"}, "")
	if err != nil {
		t.Fatalf("model show: %v", err)
	}
	requireContains(t, out, "Override:  auto")

	out, err = runCLI(t, []string{"model", "clear"}, "")
	if err != nil {
		t.Fatalf("model clear: %v", err)
	}
	requireContains(t, out, "cleared")
}

func TestModelSelectRequiresKey(t *testing.T) {
	setupCLITestEnv(t, http.StatusOK, testForecast)

	if _, err := runCLI(t, []string{"model", "select"}, ""); err == nil {
		t.Fatalf("expected model select without GEMINI_API_KEY to fail")
	}
}

func TestParseLocationInput(t *testing.T) {
	loc := parseLocationInput("48.85, 2.35")
	if loc.Coordinates == nil || loc.Coordinates.Latitude != 48.85 {
		t.Fatalf("expected coordinates, got %+v", loc)
	}
	if loc := parseLocationInput("Paris, France"); loc.Name != "Paris, France" {
		t.Fatalf("expected a place name, got %+v", loc)
	}
}
