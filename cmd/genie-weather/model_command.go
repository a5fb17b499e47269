package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/genie-weather/internal/gemini"
	"github.com/i474232898/genie-weather/internal/modelselect"
	"github.com/i474232898/genie-weather/internal/store"
)

func newModelCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect and control which Gemini model is used",
	}
	cmd.AddCommand(newModelShowCommand(ctx))
	cmd.AddCommand(newModelSelectCommand(ctx))
	cmd.AddCommand(newModelSetCommand(ctx))
	cmd.AddCommand(newModelClearCommand(ctx))
	return cmd
}

func newModelShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the override, the cached selection and the allowed models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := ctx.store()
			if err != nil {
				return err
			}
			override, _, err := store.Lookup(cmd.Context(), kv, store.KeyModelOverride)
			if err != nil {
				return err
			}
			best, _, err := store.Lookup(cmd.Context(), kv, store.KeyBestModel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Override:  %s\n", orDefault(override, "auto"))
			fmt.Fprintf(out, "Selected:  %s\n", orDefault(best, "(not probed yet)"))
			fmt.Fprintf(out, "Allowed:   %s (default %s)\n", strings.Join(gemini.AllowedModels, ", "), gemini.DefaultModel)
			return nil
		},
	}
}

func newModelSelectCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Probe the candidate models and cache the fastest healthy one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.GeminiAPIKey == "" {
				return errors.New("GEMINI_API_KEY is required to probe models")
			}
			sel, err := ctx.selector()
			if err != nil {
				return err
			}
			if refresh {
				if err := sel.Clear(cmd.Context()); err != nil {
					return err
				}
			}

			best := sel.SelectBest(cmd.Context())
			out := cmd.OutOrStdout()
			if results := sel.Results(); len(results) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Model", "Latency", "Status"},
					probeRows(results),
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
			} else {
				fmt.Fprintln(out, "Using cached selection (pass --refresh to probe again).")
			}
			fmt.Fprintf(out, "Selected: %s\n", best)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Discard the cached selection before probing")
	return cmd
}

func newModelSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <model|auto>",
		Short: "Pin a model for forecasts, or \"auto\" to use the probed selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := strings.TrimSpace(args[0])
			if !strings.EqualFold(model, "auto") && !gemini.IsAllowed(model) {
				return fmt.Errorf("unknown model %q (allowed: %s)", model, strings.Join(gemini.AllowedModels, ", "))
			}
			o, err := ctx.orchestrator(nil)
			if err != nil {
				return err
			}
			if err := o.SetModelOverride(cmd.Context(), model); err != nil {
				return err
			}
			if strings.EqualFold(model, "auto") {
				fmt.Fprintln(cmd.OutOrStdout(), "Model override cleared; using automatic selection.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Forecasts will use %s.\n", model)
			}
			return nil
		},
	}
}

func newModelClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the cached selection so the next forecast probes again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := ctx.selector()
			if err != nil {
				return err
			}
			if err := sel.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cached model selection cleared.")
			return nil
		},
	}
}

func probeRows(results []modelselect.HealthResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		latency, status := "-", r.Failure
		if r.Healthy() {
			latency = r.Latency.Round(time.Millisecond).String()
			status = "ok"
		}
		rows = append(rows, []string{r.Model, latency, status})
	}
	return rows
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
