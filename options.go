package pulsewatch

import (
	"errors"
	"log/slog"
	"time"
)

// wConfig holds mutable state during Watcher construction.
type wConfig struct {
	addresses       []string
	successInterval time.Duration
	failInterval    time.Duration
	notifyAfter     int64
	rereportEvery   int64
	quietRecovery   bool
	prober          Prober
	probeTimeout    time.Duration
	maxConcurrency  int
	notifiers       []Notifier
	logger          *slog.Logger
	eventCallbacks  []func(Event)
}

// Option is a function that configures a [Watcher] instance during construction.
//
// Options return an error if validation fails, which [New] passes through.
type Option func(*wConfig) error

// WithAddresses adds URLs to the watch list.
//
// Can be called multiple times; addresses accumulate in order. Duplicates are
// rejected by [New].
//
// Example:
//
//	w, err := pulsewatch.New(
//	    pulsewatch.WithAddresses("https://a.example.com", "https://b.example.com"),
//	    pulsewatch.WithNotifier(n),
//	)
func WithAddresses(addrs ...string) Option {
	return func(cfg *wConfig) error {
		cfg.addresses = append(cfg.addresses, addrs...)
		return nil
	}
}

// WithSuccessInterval sets the sleep after an iteration that produced no message.
// Defaults to 60 seconds.
//
// Returns an error if the duration is zero or negative.
func WithSuccessInterval(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("success interval must be positive")
		}
		cfg.successInterval = d
		return nil
	}
}

// WithFailInterval sets the sleep after an iteration that produced a failure
// or recovery message. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithFailInterval(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("fail interval must be positive")
		}
		cfg.failInterval = d
		return nil
	}
}

// WithNotifyAfter sets how many consecutive failures trigger the first alert.
// Defaults to 3.
func WithNotifyAfter(n int64) Option {
	return func(cfg *wConfig) error {
		if n < 1 {
			return errors.New("notify-after threshold must be at least 1")
		}
		cfg.notifyAfter = n
		return nil
	}
}

// WithRereportEvery sets the re-alert period during an ongoing outage: an
// alert fires whenever the consecutive failure count is a multiple of n.
// Defaults to 10.
func WithRereportEvery(n int64) Option {
	return func(cfg *wConfig) error {
		if n < 1 {
			return errors.New("re-report interval must be at least 1")
		}
		cfg.rereportEvery = n
		return nil
	}
}

// WithQuietRecovery suppresses recovery messages for failure episodes that
// never produced an alert. By default every recovery is announced.
func WithQuietRecovery(quiet bool) Option {
	return func(cfg *wConfig) error {
		cfg.quietRecovery = quiet
		return nil
	}
}

// WithNotifier adds an alert destination.
//
// Calling it more than once fans every alert out to all notifiers; a failure
// in one does not stop delivery to the others. At least one notifier is
// required.
func WithNotifier(n Notifier) Option {
	return func(cfg *wConfig) error {
		if n == nil {
			return errors.New("notifier cannot be nil")
		}
		cfg.notifiers = append(cfg.notifiers, n)
		return nil
	}
}

// WithProber replaces the built-in HTTP client.
//
// The prober owns its timeout, so [WithProbeTimeout] has no effect when a
// custom prober is set.
func WithProber(p Prober) Option {
	return func(cfg *wConfig) error {
		if p == nil {
			return errors.New("prober cannot be nil")
		}
		cfg.prober = p
		return nil
	}
}

// WithProbeTimeout bounds each request of the built-in HTTP client.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithProbeTimeout(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("probe timeout must be positive")
		}
		cfg.probeTimeout = d
		return nil
	}
}

// WithMaxConcurrency caps the number of probes in flight across all
// endpoints. Zero, the default, means no cap.
//
// Returns an error if the value is negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *wConfig) error {
		if n < 0 {
			return errors.New("max concurrency cannot be negative")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Watcher and its monitors.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *wConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithEventCallback registers a function to be called after every check.
//
// Multiple callbacks execute in registration order. Callbacks run on the
// endpoint's own goroutine, so calls for one address are sequential but calls
// for different addresses may be concurrent. A slow callback delays that
// endpoint's next check. Panics are recovered and logged.
//
// Example:
//
//	w, err := pulsewatch.New(
//	    pulsewatch.WithAddresses(addr),
//	    pulsewatch.WithNotifier(n),
//	    pulsewatch.WithEventCallback(func(ev pulsewatch.Event) {
//	        if ev.Notified && !ev.Delivered {
//	            log.Printf("alert for %s was lost", ev.URL)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithEventCallback(cb func(Event)) Option {
	return func(cfg *wConfig) error {
		if cb == nil {
			return nil
		}
		cfg.eventCallbacks = append(cfg.eventCallbacks, cb)
		return nil
	}
}
