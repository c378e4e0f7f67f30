// Package probe provides the HTTP client used to check endpoints.
//
// This package is internal to PulseWatch. [Client] issues a single GET with a
// timeout fixed at construction and reports either the status code or the
// transport error. [Limit] wraps any prober with a cap on in-flight requests.
//
// Both types are safe for concurrent use by many endpoint monitors.
package probe
