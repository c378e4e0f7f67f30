package pulsewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/pulsewatch/internal/monitor"
	"github.com/jpalmerr/pulsewatch/internal/probe"
)

const (
	defaultSuccessInterval = 60 * time.Second
	defaultFailInterval    = 10 * time.Second
	defaultNotifyAfter     = 3
	defaultRereportEvery   = 10
)

// ErrNoMonitors is returned by [Watcher.Run] when every configured address
// was rejected and nothing is left to watch.
var ErrNoMonitors = errors.New("no valid addresses to monitor")

// Watcher supervises one independent check loop per configured address.
//
// Each address gets its own goroutine with its own counters; a slow or failing
// endpoint never delays another. Alerts from every loop go through the same
// [Notifier]. A Watcher is created with [New] and started with [Watcher.Run]:
//
//	w, err := pulsewatch.New(
//	    pulsewatch.WithAddresses("https://api.example.com/health"),
//	    pulsewatch.WithNotifier(tg),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	w.Run(ctx) // blocks until context cancelled
type Watcher struct {
	addresses      []string
	settings       monitor.Settings
	prober         Prober
	probeTimeout   time.Duration
	maxConcurrency int
	notifier       Notifier
	logger         *slog.Logger
	eventCallbacks []func(Event)
}

// New creates a [Watcher] with the given options.
//
// At least one address and one notifier are required. Defaults:
//   - Success interval: 60 seconds
//   - Fail interval: 10 seconds
//   - Notify after: 3 consecutive failures
//   - Re-report every: 10 consecutive failures
//   - Probe timeout: 10 seconds
//
// Addresses are not validated here; malformed ones are logged and skipped by
// [Watcher.Run] so that one typo does not take down the others.
func New(opts ...Option) (*Watcher, error) {
	cfg := &wConfig{
		successInterval: defaultSuccessInterval,
		failInterval:    defaultFailInterval,
		notifyAfter:     defaultNotifyAfter,
		rereportEvery:   defaultRereportEvery,
		probeTimeout:    probe.DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.addresses) == 0 {
		return nil, errors.New("at least one address is required")
	}

	seen := make(map[string]bool, len(cfg.addresses))
	for _, addr := range cfg.addresses {
		if seen[addr] {
			return nil, fmt.Errorf("duplicate address: %q", addr)
		}
		seen[addr] = true
	}

	if len(cfg.notifiers) == 0 {
		return nil, errors.New("at least one notifier is required")
	}
	notifier := cfg.notifiers[0]
	if len(cfg.notifiers) > 1 {
		notifier = MultiNotifier(cfg.notifiers...)
	}

	policy := monitor.Policy{
		NotifyAfter:   cfg.notifyAfter,
		RereportEvery: cfg.rereportEvery,
		QuietRecovery: cfg.quietRecovery,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		addresses:      cfg.addresses,
		prober:         cfg.prober,
		probeTimeout:   cfg.probeTimeout,
		maxConcurrency: cfg.maxConcurrency,
		notifier:       notifier,
		logger:         logger,
		eventCallbacks: cfg.eventCallbacks,
	}
	w.settings = monitor.Settings{
		SuccessInterval: cfg.successInterval,
		FailInterval:    cfg.failInterval,
		Policy:          policy,
	}
	if len(w.eventCallbacks) > 0 {
		w.settings.OnEvent = w.dispatch
	}
	return w, nil
}

// Run starts a check loop for every valid address and blocks until ctx is
// cancelled and all loops have exited.
//
// Loops are started in configuration order. An address that fails URL
// validation is logged as "bad URL format" and skipped. If none remain, Run
// returns [ErrNoMonitors] immediately. Returns nil on graceful shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("pulsewatch starting",
		"address_count", len(w.addresses),
		"success_interval", w.settings.SuccessInterval.String(),
		"fail_interval", w.settings.FailInterval.String(),
		"notify_after", w.settings.Policy.NotifyAfter,
		"rereport_every", w.settings.Policy.RereportEvery,
	)

	if ctx.Err() != nil {
		return nil
	}

	prober := w.prober
	if prober == nil {
		client := probe.NewClient(w.probeTimeout)
		defer client.Close()
		prober = client
	}
	prober = probe.Limit(prober, w.maxConcurrency)

	monitors := make([]*monitor.Monitor, 0, len(w.addresses))
	for _, addr := range w.addresses {
		m, err := monitor.New(addr, w.settings, prober, w.notifier, w.logger)
		if errors.Is(err, monitor.ErrInvalidURL) {
			w.logger.Error("bad URL format", "address", addr, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create monitor for %q: %w", addr, err)
		}
		monitors = append(monitors, m)
	}

	if len(monitors) == 0 {
		return ErrNoMonitors
	}

	var g errgroup.Group
	for _, m := range monitors {
		m := m
		g.Go(func() error {
			return m.Run(ctx)
		})
	}

	err := g.Wait()
	w.logger.Info("pulsewatch stopped")
	return err
}

// Addresses returns a copy of the configured addresses.
func (w *Watcher) Addresses() []string {
	cp := make([]string, len(w.addresses))
	copy(cp, w.addresses)
	return cp
}

// SuccessInterval returns the sleep after a quiet iteration.
func (w *Watcher) SuccessInterval() time.Duration {
	return w.settings.SuccessInterval
}

// FailInterval returns the sleep after an iteration that produced a message.
func (w *Watcher) FailInterval() time.Duration {
	return w.settings.FailInterval
}

// dispatch fans a monitor event out to the registered callbacks.
func (w *Watcher) dispatch(ev monitor.Event) {
	public := eventFromMonitor(ev)
	for _, cb := range w.eventCallbacks {
		invokeCallbackSafe(cb, public, w.logger)
	}
}

// invokeCallbackSafe calls an event callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Event), ev Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event callback panicked",
				"panic", r,
				"url", ev.URL,
			)
		}
	}()
	cb(ev)
}
