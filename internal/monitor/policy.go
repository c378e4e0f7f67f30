package monitor

import "errors"

// Policy decides which reportable events are delivered to the notifier.
type Policy struct {
	// NotifyAfter is the consecutive-failure count that fires the first alert
	// of a failure episode. Must be at least 1.
	NotifyAfter int64

	// RereportEvery re-alerts on every N-th consecutive failure. Must be at least 1.
	RereportEvery int64

	// QuietRecovery suppresses recovery messages for episodes that never
	// produced a failure alert. Off by default: recoveries always notify.
	QuietRecovery bool
}

// Validate rejects policies that would make the throttle undefined.
func (p Policy) Validate() error {
	if p.NotifyAfter < 1 {
		return errors.New("notify-after threshold must be at least 1")
	}
	if p.RereportEvery < 1 {
		return errors.New("re-report interval must be at least 1")
	}
	return nil
}

// ShouldNotify reports whether ev should be sent.
//
// Failures are sent exactly when the consecutive count equals NotifyAfter or
// is a multiple of RereportEvery. Recoveries are sent unless QuietRecovery is
// set and the closed episode was never alerted.
func (p Policy) ShouldNotify(ev Event) bool {
	if !ev.Reportable() {
		return false
	}

	if !ev.Outcome.Failed() {
		return ev.Recovered && (!p.QuietRecovery || ev.EpisodeAlerted)
	}

	n := ev.ConsecutiveFailures
	if n == p.NotifyAfter {
		return true
	}
	return p.RereportEvery > 0 && n%p.RereportEvery == 0
}
