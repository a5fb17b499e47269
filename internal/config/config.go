package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/genie-weather/internal/gemini"
	"github.com/i474232898/genie-weather/internal/logging"
	"github.com/i474232898/genie-weather/internal/transport"
	"github.com/i474232898/genie-weather/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	// GoogleAPIKey is the proxy's Gemini credential.
	GoogleAPIKey string
	// GeminiAPIKey is the credential used by the client-side model probe.
	GeminiAPIKey  string
	GeminiBaseURL string `validate:"required,url"`

	BackendURL string `validate:"required,url"`
	Port       string `validate:"required,numeric"`

	HTTPTimeout  time.Duration `validate:"gt=0"`
	ProbeTimeout time.Duration `validate:"gt=0"`

	RetryCount int           `validate:"gte=0"`
	RetryDelay time.Duration `validate:"gte=0"`
	Cooldown   time.Duration `validate:"gte=0"`

	// StorePath is the SQLite file for persisted state; empty keeps it in memory.
	StorePath string

	UpstreamRPS   float64 `validate:"gt=0"`
	UpstreamBurst int     `validate:"gte=1"`

	GeocoderAPIKey string
	HomeAddress    string

	LogLevel  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat string `validate:"oneof=console json"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:  getenvDefault("GEMINI_BASE_URL", gemini.DefaultBaseURL),
		BackendURL:     getenvDefault("GENIE_BACKEND_URL", "http://localhost:3000"),
		Port:           getenvDefault("PORT", "3000"),
		RetryCount:     getenvInt("RETRY_COUNT", transport.DefaultRetries),
		StorePath:      defaultStorePath(),
		UpstreamBurst:  getenvInt("UPSTREAM_BURST", 5),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
		HomeAddress:    os.Getenv("GENIE_HOME_ADDRESS"),
		LogLevel:       strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getenvDefault("LOG_FORMAT", string(logging.FormatConsole))),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = getenvDuration("PROBE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getenvDuration("RETRY_DELAY", transport.DefaultDelay); err != nil {
		return nil, err
	}
	if cfg.Cooldown, err = getenvDuration("COOLDOWN", weather.DefaultCooldown); err != nil {
		return nil, err
	}
	if cfg.UpstreamRPS, err = getenvFloat("UPSTREAM_RPS", 2); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// RetryPolicy returns the client-side retry settings.
func (c *AppConfig) RetryPolicy() transport.Policy {
	return transport.Policy{Retries: c.RetryCount, Delay: c.RetryDelay}
}

// Logging returns the logger settings.
func (c *AppConfig) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: logging.Format(c.LogFormat)}
}

func defaultStorePath() string {
	if v, ok := os.LookupEnv("GENIE_STORE_PATH"); ok {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "genie-weather", "state.db")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

// getenvDuration accepts Go durations ("4s") or plain milliseconds ("4000").
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
