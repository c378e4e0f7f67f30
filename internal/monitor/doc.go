// Package monitor implements the per-endpoint check-and-notify loop.
//
// This package is internal to PulseWatch. Each [Monitor] owns exactly one
// endpoint: it probes the URL, classifies the outcome, updates the endpoint's
// failure and success counters, and decides whether the outcome deserves a
// notification. Monitors share no mutable state with each other.
//
// The main components are:
//
//   - [State]: Counters for one endpoint and the classification of probe outcomes
//   - [Policy]: The notification throttle (threshold edge plus periodic re-alert)
//   - [Monitor]: The check loop driving a [Prober] and a [Notifier]
//   - [ParseEndpointURL]: The URL validation gate run before a loop starts
//
// Users of the pulsewatch library should not need to interact with this
// package directly. Monitors are started by the root package's Watcher.
package monitor
