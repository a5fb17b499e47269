package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "genie-weather",
		Short:         "Weather forecasts from Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.storeFlag, "store", "", "Path to the state database (overrides GENIE_STORE_PATH)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newForecastCommand(ctx))
	rootCmd.AddCommand(newModelCommand(ctx))

	return rootCmd
}
