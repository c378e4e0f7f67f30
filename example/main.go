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
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockHealthServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 3 services from one template
	addrs, err := pulsewatch.ExpandAddressGrid(
		"http://localhost:9999/health?svc={{.svc}}",
		map[string][]string{"svc": {"users", "orders", "billing"}},
	)
	if err != nil {
		slog.Error("failed to expand address grid", "error", err)
		os.Exit(1)
	}

	// a malformed address is logged and skipped, the others keep running
	addrs = append(addrs, "localhost:9999/no-scheme")

	w, err := pulsewatch.New(
		pulsewatch.WithAddresses(addrs...),
		pulsewatch.WithNotifier(pulsewatch.LogNotifier(logger)),
		pulsewatch.WithSuccessInterval(5*time.Second),
		pulsewatch.WithFailInterval(2*time.Second),
		pulsewatch.WithNotifyAfter(2),
		pulsewatch.WithRereportEvery(5),
		pulsewatch.WithProbeTimeout(2*time.Second),
		pulsewatch.WithLogger(logger),
		pulsewatch.WithEventCallback(func(ev pulsewatch.Event) {
			if ev.Outcome != pulsewatch.OutcomeSuccess {
				fmt.Printf("  %-45s %-16s streak=%d incident=%s\n",
					ev.URL, ev.Outcome, ev.ConsecutiveFailures, ev.IncidentID)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Pulsewatch demo")
	fmt.Println()
	fmt.Println("  Watching 3 mock services that flap between 200, 503 and timeouts.")
	fmt.Println("  Alerts are written to the log as WARN \"alert\" records.")
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil {
		slog.Error("pulsewatch error", "error", err)
		os.Exit(1)
	}
}
