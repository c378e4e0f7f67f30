package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Prober issues a single request against a URL.
//
// Implementations own their timeout and must be safe for concurrent use.
// A returned error is a transport failure; otherwise statusCode is the HTTP
// status of the response.
type Prober interface {
	Probe(ctx context.Context, url string) (statusCode int, err error)
}

// Notifier delivers a text message to its configured destination.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Settings is the immutable per-monitor configuration.
type Settings struct {
	// SuccessInterval is the sleep after an iteration that produced no message.
	SuccessInterval time.Duration

	// FailInterval is the sleep after an iteration that produced a message,
	// including the recovery iteration.
	FailInterval time.Duration

	Policy Policy

	// OnEvent, if set, is called with every classified event after the
	// notification decision. It runs on the monitor goroutine.
	OnEvent func(Event)
}

func (s Settings) validate() error {
	if s.SuccessInterval <= 0 {
		return errors.New("success interval must be positive")
	}
	if s.FailInterval <= 0 {
		return errors.New("fail interval must be positive")
	}
	return s.Policy.Validate()
}

// Monitor runs the check loop for one endpoint.
//
// A Monitor is driven by a single goroutine; its [State] is never shared.
type Monitor struct {
	url      string
	settings Settings
	prober   Prober
	notifier Notifier
	logger   *slog.Logger
	state    State
}

// New creates a [Monitor] for rawURL after running it through [ParseEndpointURL].
//
// Returns an error wrapping [ErrInvalidURL] if the address is malformed, or a
// plain error if settings or collaborators are invalid. A nil logger falls
// back to [slog.Default].
func New(rawURL string, settings Settings, prober Prober, notifier Notifier, logger *slog.Logger) (*Monitor, error) {
	u, err := ParseEndpointURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if prober == nil {
		return nil, errors.New("prober cannot be nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		url:      u,
		settings: settings,
		prober:   prober,
		notifier: notifier,
		logger:   logger.With("url", u),
		state:    State{URL: u},
	}, nil
}

// URL returns the monitored address.
func (m *Monitor) URL() string {
	return m.url
}

// State returns a copy of the endpoint counters.
// Only call it while Run is not executing.
func (m *Monitor) State() State {
	return m.state
}

// Run executes the check loop until ctx is cancelled.
//
// Iterations are strictly sequential: probe, classify, notify, sleep. Both the
// probe and the sleep observe ctx. Run always returns nil; probe and delivery
// errors are absorbed into logs and counters.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started")
	defer m.logger.Info("monitor stopped")

	for {
		ev, err := m.Step(ctx)
		if err != nil {
			return nil
		}

		timer := time.NewTimer(m.nextDelay(ev))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Step performs one probe-classify-notify iteration without sleeping.
//
// If ctx is cancelled while the probe is in flight, the result is discarded
// and ctx's error is returned so shutdown never counts as a failure.
func (m *Monitor) Step(ctx context.Context) (Event, error) {
	code, probeErr := m.prober.Probe(ctx, m.url)
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	ev := m.state.Observe(code, probeErr, time.Now())

	switch {
	case !ev.Reportable():
		m.logger.Info("check ok", "status", code)
	case m.settings.Policy.ShouldNotify(ev):
		ev.Notified = true
		ev.Delivered = m.deliver(ctx, ev)
		if ev.Delivered && ev.Outcome.Failed() {
			m.state.Alerted = true
		}
	default:
		m.logger.Debug("notification suppressed",
			"outcome", ev.Outcome.String(),
			"consecutive_failures", ev.ConsecutiveFailures,
			"incident_id", ev.IncidentID,
		)
	}

	if m.settings.OnEvent != nil {
		m.emit(ev)
	}
	return ev, nil
}

// nextDelay picks the fast cadence whenever the iteration produced a message.
func (m *Monitor) nextDelay(ev Event) time.Duration {
	if ev.Reportable() {
		return m.settings.FailInterval
	}
	return m.settings.SuccessInterval
}

// deliver sends the event's message once. Failures are logged, never retried.
func (m *Monitor) deliver(ctx context.Context, ev Event) bool {
	if err := m.safeNotify(ctx, ev.Message); err != nil {
		m.logger.Error("notification failed",
			"error", err,
			"incident_id", ev.IncidentID,
		)
		return false
	}

	m.logger.Info("notification sent",
		"message", ev.Message,
		"outcome", ev.Outcome.String(),
		"consecutive_failures", ev.ConsecutiveFailures,
		"incident_id", ev.IncidentID,
	)
	return true
}

// safeNotify calls the notifier with panic recovery. A panic is logged with
// its stack under a correlation ID and returned as an error carrying that ID.
func (m *Monitor) safeNotify(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			m.logger.Error("notifier panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("notifier panic (correlation_id: %s)", correlationID)
		}
	}()
	return m.notifier.Notify(ctx, text)
}

// emit invokes the event hook. Panics are logged but do not stop the loop.
func (m *Monitor) emit(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event callback panicked", "panic", r)
		}
	}()
	m.settings.OnEvent(ev)
}
