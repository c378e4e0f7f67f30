package main

import (
	"fmt"

	"github.com/jpalmerr/pulsewatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without contacting any endpoint.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a pulsewatch configuration file without starting any checks.

This command decodes the file, expands environment variables, validates all
fields and expands address grids. The Telegram token is not checked against
the Bot API. Useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pulsewatch validate -c pulsewatch.toml
  PULSEWATCH_CONFIG=/etc/pulsewatch.yaml pulsewatch validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (default $PULSEWATCH_CONFIG or pulsewatch.toml)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	path := config.ResolvePath(configFile)

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	addrs, err := config.BuildAddresses(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	channels := "telegram"
	switch {
	case cfg.TelegramToken != "" && cfg.SlackWebhookURL != "":
		channels = "telegram, slack"
	case cfg.TelegramToken == "":
		channels = "slack"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  File:          %s (%s)\n", path, config.FormatFromPath(path))
	fmt.Fprintf(out, "  Intervals:     %s ok / %s failing\n", cfg.SuccessInterval(), cfg.FailInterval())
	fmt.Fprintf(out, "  Alerting:      after %d failures, then every %d\n", cfg.NotifyFailures, cfg.Rereport)
	fmt.Fprintf(out, "  Channels:      %s\n", channels)
	fmt.Fprintf(out, "  Addresses:     %d direct + %d from grids = %d total\n",
		len(cfg.Addresses), len(addrs)-len(cfg.Addresses), len(addrs))

	return nil
}
