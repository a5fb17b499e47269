package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/genie-weather/internal/api/http"
	"github.com/i474232898/genie-weather/internal/logging"
	"github.com/i474232898/genie-weather/internal/weather/providers"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the forecast proxy in front of Gemini",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if port == "" {
				port = cfg.Port
			}
			log := logging.Component(ctx.log, "proxy")
			if cfg.GoogleAPIKey == "" {
				log.Warn().Msg("GOOGLE_API_KEY is not set; forecast requests will fail")
			}

			// Shared HTTP client for outbound Gemini calls.
			httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
			gen := providers.NewRateLimitedGenerator(
				providers.NewGeminiProvider(httpClient, cfg.GeminiBaseURL, cfg.GoogleAPIKey, logging.Component(ctx.log, "gemini")),
				cfg.UpstreamRPS,
				cfg.UpstreamBurst,
			)

			app := httpapi.NewApp(gen, log)

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", port).Str("generator", gen.Name()).Msg("proxy listening")
				errCh <- app.Listen(":" + port)
			}()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-sigCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("error during shutdown")
				return err
			}
			log.Info().Msg("proxy stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	return cmd
}
