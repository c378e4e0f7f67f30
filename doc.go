// Package pulsewatch watches HTTP endpoints and sends throttled alerts when
// they go down and when they come back.
//
// Every address gets its own check loop. A check is a single GET; only
// 200 OK counts as healthy, anything else (another status code or a transport
// error) is a failure. Consecutive failures are counted per address, and an
// alert is sent when the count reaches the notify-after threshold and again
// every time it is a multiple of the re-report interval. The first success
// after a failure episode sends a recovery message. Loops sleep the success
// interval after a quiet check and the shorter fail interval after any check
// that produced a message.
//
// # Quick Start
//
//	tg, err := pulsewatch.NewTelegramNotifier(os.Getenv("TELEGRAM_TOKEN"), chatID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w, err := pulsewatch.New(
//	    pulsewatch.WithAddresses("https://api.example.com/health", "https://example.com"),
//	    pulsewatch.WithNotifier(tg),
//	    pulsewatch.WithSuccessInterval(time.Minute),
//	    pulsewatch.WithFailInterval(10 * time.Second),
//	    pulsewatch.WithNotifyAfter(3),
//	    pulsewatch.WithRereportEvery(20),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Run(ctx) // blocks until context is cancelled
//
// # Alert Text
//
// Messages are plain text, one line each:
//
//	https://api.example.com/health: status 503 Service Unavailable, failures: 3, successes: 120
//	https://api.example.com/health: request failed: Get "https://api.example.com/health": dial tcp 10.0.0.7:443: connect: connection refused, failures: 4, successes: 120
//	https://api.example.com/health recovered
//
// The failures and successes figures are lifetime totals for the address
// since the process started.
//
// # Architecture
//
//   - internal/monitor: per-endpoint state machine, throttle policy and check loop
//   - internal/probe: pooled HTTP client and optional concurrency limiter
//   - internal/notify: Telegram, Slack, log and fan-out notifiers
//   - config: TOML/YAML/JSON file loading, validation and option building
//
// The internal packages are not part of the public API and may change
// without notice.
package pulsewatch
