package main

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/config"
	"github.com/i474232898/genie-weather/internal/geo"
	"github.com/i474232898/genie-weather/internal/logging"
	"github.com/i474232898/genie-weather/internal/modelselect"
	"github.com/i474232898/genie-weather/internal/scheduler"
	"github.com/i474232898/genie-weather/internal/store"
	"github.com/i474232898/genie-weather/internal/transport"
	"github.com/i474232898/genie-weather/internal/weather"
)

type commandContext struct {
	storeFlag    string
	logLevelFlag string

	configOnce sync.Once
	config     *config.AppConfig
	configErr  error
	log        zerolog.Logger

	storeOnce sync.Once
	kv        store.KV
	closers   []func() error
	storeErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{log: zerolog.Nop()}
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.storeFlag); v != "" {
			cfg.StorePath = v
		}
		if v := strings.TrimSpace(c.logLevelFlag); v != "" {
			cfg.LogLevel = v
		}
		c.config = cfg
		c.log = logging.New(cfg.Logging())
	})
	return c.config, c.configErr
}

// store opens the persisted state once per invocation.
func (c *commandContext) store() (store.KV, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		if cfg.StorePath == "" {
			c.kv = store.NewMemoryStore()
			return
		}
		db, err := store.NewSQLite(cfg.StorePath)
		if err != nil {
			c.storeErr = fmt.Errorf("open state store: %w", err)
			return
		}
		c.kv = db
		c.closers = append(c.closers, db.Close)
	})
	return c.kv, c.storeErr
}

func (c *commandContext) selector() (*modelselect.Selector, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	kv, err := c.store()
	if err != nil {
		return nil, err
	}
	log := logging.Component(c.log, "modelselect")
	prober := modelselect.NewHTTPProber(cfg.GeminiBaseURL, cfg.ProbeTimeout, log)
	return modelselect.NewSelector(cfg.GeminiAPIKey, prober, kv, log), nil
}

// orchestrator wires the client pipeline: retrying transport, forecast client,
// model selector, gocron cooldowns and the optional geocoding locator.
func (c *commandContext) orchestrator(observer func(weather.Snapshot)) (*weather.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	kv, err := c.store()
	if err != nil {
		return nil, err
	}
	sel, err := c.selector()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	requester := transport.NewRequester(httpClient, cfg.RetryPolicy(), logging.Component(c.log, "transport"))
	client := weather.NewClient(cfg.BackendURL, requester, logging.Component(c.log, "forecast"))

	sched := scheduler.New(logging.Component(c.log, "scheduler"))
	sched.Start()

	opts := []weather.Option{weather.WithCooldown(cfg.Cooldown)}
	if observer != nil {
		opts = append(opts, weather.WithObserver(observer))
	}
	if cfg.HomeAddress != "" {
		opts = append(opts, weather.WithLocator(geo.NewLocator(cfg.GeocoderAPIKey, cfg.HomeAddress, logging.Component(c.log, "geo"))))
	}

	o := weather.NewOrchestrator(client, sel, kv, sched, logging.Component(c.log, "orchestrator"), opts...)
	c.closers = append(c.closers, o.Close, func() error {
		sched.Stop()
		return nil
	})
	return o, nil
}

// close releases resources in reverse order of acquisition.
func (c *commandContext) close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
