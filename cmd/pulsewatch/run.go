package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pulsewatch"
	"github.com/jpalmerr/pulsewatch/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// runCmd starts watching the configured endpoints.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch endpoints and send alerts",
	Long: `Watch the configured endpoints until interrupted.

Each address gets its own check loop. Alerts are sent to Telegram and, if
configured, to a Slack webhook. Addresses with a malformed URL are logged
and skipped; the command fails only if none are left.

The process runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  pulsewatch run -c pulsewatch.toml
  PULSEWATCH_CONFIG=/etc/pulsewatch.yaml pulsewatch run
  pulsewatch run --dry-run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (default $PULSEWATCH_CONFIG or pulsewatch.toml)")
	runCmd.Flags().Bool("dry-run", false, "log alerts instead of sending them")
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	path := config.ResolvePath(configFile)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger.Info("config loaded",
		"path", path,
		"addresses", len(cfg.Addresses),
		"address_grids", len(cfg.AddressGrids),
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	notifiers, err := buildNotifiers(cfg, logger, dryRun)
	if err != nil {
		return err
	}
	for _, n := range notifiers {
		opts = append(opts, pulsewatch.WithNotifier(n))
	}
	opts = append(opts, pulsewatch.WithLogger(logger))

	w, err := pulsewatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, give in-flight probes and deliveries a bounded grace period
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("watcher error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// buildNotifiers creates the alert destinations named in cfg. With dryRun
// set, alerts only go to the log and no external service is contacted.
func buildNotifiers(cfg *config.Config, logger *slog.Logger, dryRun bool) ([]pulsewatch.Notifier, error) {
	if dryRun {
		logger.Info("dry run: alerts will be logged, not sent")
		return []pulsewatch.Notifier{pulsewatch.LogNotifier(logger)}, nil
	}

	var notifiers []pulsewatch.Notifier

	if cfg.TelegramToken != "" {
		tg, err := pulsewatch.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram notifier: %w", err)
		}
		if named, ok := tg.(interface{ BotName() string }); ok {
			logger.Info("telegram bot authorized", "bot", named.BotName(), "chat_id", cfg.TelegramChatID)
		}
		notifiers = append(notifiers, tg)
	}

	if cfg.SlackWebhookURL != "" {
		slack, err := pulsewatch.NewSlackNotifier(cfg.SlackWebhookURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create slack notifier: %w", err)
		}
		notifiers = append(notifiers, slack)
	}

	return notifiers, nil
}
