// Package main is the entry point for the pulsewatch CLI.
//
// Pulsewatch can be used as a library (SDK) or as a standalone binary driven
// by a configuration file. This CLI provides the standalone binary.
//
// Usage:
//
//	pulsewatch run -c pulsewatch.toml       # Watch endpoints and send alerts
//	pulsewatch run --dry-run                # Log alerts instead of sending them
//	pulsewatch validate -c pulsewatch.toml  # Validate configuration
//	pulsewatch version                      # Show version info
//
// Without -c the file named by $PULSEWATCH_CONFIG is used, falling back to
// pulsewatch.toml in the working directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "pulsewatch",
	Short: "Watch HTTP endpoints and alert on outages",
	Long: `Pulsewatch checks a list of HTTP endpoints on a fixed cadence and sends
throttled Telegram (or Slack) alerts when one of them goes down or recovers.

Quick start:
  1. Create a config file (pulsewatch.toml)
  2. Run: pulsewatch run -c pulsewatch.toml

Example config:
  telegram_token = "${TELEGRAM_TOKEN}"
  telegram_chat_id = -1001234567890
  check_interval_success = 60000
  check_interval_fail = 10000
  notify_failures = 3
  rereport = 20
  addresses = ["https://example.com"]`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pulsewatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pulsewatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
