package monitor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// okStatus is the only status code treated as a healthy probe.
const okStatus = http.StatusOK

// Outcome classifies a single probe result.
type Outcome int

const (
	// OutcomeSuccess means the probe returned the OK status.
	OutcomeSuccess Outcome = iota

	// OutcomeBadStatus means the probe completed with any other status code.
	OutcomeBadStatus

	// OutcomeTransportError means the probe could not complete (DNS, connect,
	// timeout, TLS, ...).
	OutcomeTransportError
)

// String returns a short label for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBadStatus:
		return "bad_status"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Failed reports whether the outcome counts towards consecutive failures.
func (o Outcome) Failed() bool {
	return o != OutcomeSuccess
}

// Event is the result of classifying one probe against an endpoint's [State].
//
// Counter fields are a snapshot taken after the outcome was applied.
type Event struct {
	// URL is the probed endpoint.
	URL string

	// Outcome is the classification of the probe.
	Outcome Outcome

	// StatusCode is the HTTP status returned, zero on transport errors.
	StatusCode int

	// Err is the transport error, nil unless Outcome is OutcomeTransportError.
	Err error

	// Recovered is true on the first success after one or more failures.
	Recovered bool

	// EpisodeAlerted is set on recovery events when a failure notification
	// was delivered during the episode that just ended.
	EpisodeAlerted bool

	// Message is the text handed to the notifier. Empty for plain successes.
	Message string

	ConsecutiveFailures int64
	TotalFailures       int64
	TotalSuccesses      int64

	// IncidentID identifies the failure episode this event belongs to.
	// Recovery events carry the ID of the episode they close.
	IncidentID string

	// CheckedAt is when the probe result was classified.
	CheckedAt time.Time

	// Notified is true when the throttle policy selected this event for delivery.
	Notified bool

	// Delivered is true when the notifier accepted the message.
	Delivered bool
}

// Reportable reports whether the event produced a message.
func (e Event) Reportable() bool {
	return e.Message != ""
}

// State holds the health counters of one endpoint.
//
// A State is owned by a single monitor goroutine and is not safe for
// concurrent use. The zero value (plus a URL) is a valid starting state.
type State struct {
	URL string

	// ConsecutiveFailures is zero iff the last probe succeeded or no probe
	// has happened yet.
	ConsecutiveFailures int64

	TotalFailures  int64
	TotalSuccesses int64

	// IncidentID is the uuid of the current failure episode, empty when healthy.
	IncidentID string

	// Alerted is set once a failure notification is delivered in the current episode.
	Alerted bool
}

// Observe applies one probe result to the state and returns the classified event.
//
// A non-nil err is a transport failure regardless of statusCode.
func (s *State) Observe(statusCode int, err error, now time.Time) Event {
	ev := Event{
		URL:        s.URL,
		StatusCode: statusCode,
		CheckedAt:  now,
	}

	switch {
	case err != nil:
		ev.Outcome = OutcomeTransportError
		ev.StatusCode = 0
		ev.Err = err
		s.recordFailure()
		ev.Message = fmt.Sprintf("%s: %v, failures: %d, successes: %d",
			s.URL, err, s.TotalFailures, s.TotalSuccesses)

	case statusCode != okStatus:
		ev.Outcome = OutcomeBadStatus
		s.recordFailure()
		ev.Message = fmt.Sprintf("%s: status %s, failures: %d, successes: %d",
			s.URL, statusLine(statusCode), s.TotalFailures, s.TotalSuccesses)

	default:
		ev.Outcome = OutcomeSuccess
		s.TotalSuccesses++
		if s.ConsecutiveFailures > 0 {
			ev.Recovered = true
			ev.EpisodeAlerted = s.Alerted
			ev.IncidentID = s.IncidentID
			ev.Message = fmt.Sprintf("%s recovered", s.URL)

			s.ConsecutiveFailures = 0
			s.IncidentID = ""
			s.Alerted = false
		}
	}

	if ev.Outcome.Failed() {
		ev.IncidentID = s.IncidentID
	}
	ev.ConsecutiveFailures = s.ConsecutiveFailures
	ev.TotalFailures = s.TotalFailures
	ev.TotalSuccesses = s.TotalSuccesses
	return ev
}

func (s *State) recordFailure() {
	if s.ConsecutiveFailures == 0 {
		s.IncidentID = uuid.NewString()
	}
	s.TotalFailures++
	s.ConsecutiveFailures++
}

// statusLine renders a status code the way HTTP status lines do, e.g. "503 Service Unavailable".
func statusLine(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}
