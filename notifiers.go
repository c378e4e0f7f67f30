package pulsewatch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jpalmerr/pulsewatch/internal/notify"
)

// Notifier delivers alert text to a destination such as a chat.
//
// Implementations must be safe for concurrent use: every endpoint monitor
// shares the same notifier. Delivery is attempted once per alert; a returned
// error is logged and the alert is dropped.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Prober checks a URL once and returns the HTTP status code or a transport error.
//
// Implementations own their timeout and must be safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, url string) (statusCode int, err error)
}

// NewTelegramNotifier returns a [Notifier] posting to a Telegram chat.
//
// The bot token is verified against the Bot API before returning, so an
// invalid token fails here instead of on the first alert.
func NewTelegramNotifier(token string, chatID int64) (Notifier, error) {
	tg, err := notify.NewTelegram(token, chatID)
	if err != nil {
		return nil, err
	}
	return tg, nil
}

// NewSlackNotifier returns a [Notifier] posting to a Slack incoming webhook.
// A nil client uses a default client with a 10 second timeout.
func NewSlackNotifier(webhookURL string, client *http.Client) (Notifier, error) {
	s, err := notify.NewSlack(webhookURL, client)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MultiNotifier fans each alert out to every notifier. Delivery continues
// past failures and the errors are joined.
func MultiNotifier(notifiers ...Notifier) Notifier {
	m := make(notify.Multi, 0, len(notifiers))
	for _, n := range notifiers {
		m = append(m, n)
	}
	return m
}

// LogNotifier returns a [Notifier] that writes alerts to logger at WARN level.
// Useful for dry runs. A nil logger uses [slog.Default].
func LogNotifier(logger *slog.Logger) Notifier {
	return notify.Log{Logger: logger}
}
