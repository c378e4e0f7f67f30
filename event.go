package pulsewatch

import (
	"time"

	"github.com/jpalmerr/pulsewatch/internal/monitor"
)

// Outcome classifies a single probe result.
//
// Outcome is a string type so it can be logged and serialized directly.
type Outcome string

const (
	// OutcomeSuccess indicates the endpoint answered 200 OK.
	OutcomeSuccess Outcome = "success"

	// OutcomeBadStatus indicates the endpoint answered with any other status code.
	OutcomeBadStatus Outcome = "bad_status"

	// OutcomeTransportError indicates the request could not complete
	// (DNS, connect, TLS, timeout).
	OutcomeTransportError Outcome = "transport_error"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Event describes one completed check of one endpoint.
//
// Counter fields are a snapshot taken after the check was applied. Events are
// passed to callbacks registered with [WithEventCallback].
type Event struct {
	// URL is the checked address.
	URL string

	// Outcome is the classification of the probe.
	Outcome Outcome

	// StatusCode is the HTTP status code, zero on transport errors.
	StatusCode int

	// Err is the transport error, nil unless Outcome is [OutcomeTransportError].
	Err error

	// Recovered is true on the first success after a failure episode.
	Recovered bool

	// Message is the alert text. Empty for plain successes.
	Message string

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int64

	// TotalFailures and TotalSuccesses are lifetime counters for this process.
	TotalFailures  int64
	TotalSuccesses int64

	// IncidentID groups the events of one failure episode, including its recovery.
	IncidentID string

	// CheckedAt is when the result was classified.
	CheckedAt time.Time

	// Notified is true when the throttle selected the message for delivery.
	Notified bool

	// Delivered is true when the notifier accepted the message.
	Delivered bool
}

// eventFromMonitor converts the internal monitor event to the public type.
func eventFromMonitor(ev monitor.Event) Event {
	return Event{
		URL:                 ev.URL,
		Outcome:             Outcome(ev.Outcome.String()),
		StatusCode:          ev.StatusCode,
		Err:                 ev.Err,
		Recovered:           ev.Recovered,
		Message:             ev.Message,
		ConsecutiveFailures: ev.ConsecutiveFailures,
		TotalFailures:       ev.TotalFailures,
		TotalSuccesses:      ev.TotalSuccesses,
		IncidentID:          ev.IncidentID,
		CheckedAt:           ev.CheckedAt,
		Notified:            ev.Notified,
		Delivered:           ev.Delivered,
	}
}
