// Package notify delivers alert text to chat destinations.
//
// This package is internal to PulseWatch. Every implementation satisfies
// [Notifier] and is safe for concurrent use by many endpoint monitors.
// Delivery is attempted once; retry policy belongs to the caller (which, for
// PulseWatch, is to log and move on).
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Notifier delivers a text message to a configured destination.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi fans a message out to several notifiers.
//
// Every notifier is attempted even if an earlier one fails. The returned error
// joins all delivery failures, each prefixed with the notifier's position.
type Multi []Notifier

// Notify implements [Notifier].
func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Log writes messages to a logger instead of a chat. It is used for dry runs
// and never fails.
type Log struct {
	Logger *slog.Logger
}

// Notify implements [Notifier].
func (l Log) Notify(ctx context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "alert", "text", text)
	return nil
}
