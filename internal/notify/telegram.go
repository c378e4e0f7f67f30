package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultTelegramTimeout = 10 * time.Second

// Telegram sends messages to one chat through the Telegram Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

type telegramConfig struct {
	endpoint string
	client   tgbotapi.HTTPClient
}

// TelegramOption configures [NewTelegram].
type TelegramOption func(*telegramConfig)

// WithTelegramEndpoint overrides the Bot API URL format. It must contain two
// %s verbs: the token and the method name.
func WithTelegramEndpoint(endpoint string) TelegramOption {
	return func(cfg *telegramConfig) {
		cfg.endpoint = endpoint
	}
}

// WithTelegramHTTPClient sets the HTTP client used for Bot API calls.
func WithTelegramHTTPClient(client tgbotapi.HTTPClient) TelegramOption {
	return func(cfg *telegramConfig) {
		cfg.client = client
	}
}

// NewTelegram authenticates the bot token and returns a notifier bound to chatID.
//
// The token is checked with a getMe call, so a revoked or mistyped token is
// reported at startup rather than on the first alert.
func NewTelegram(token string, chatID int64, opts ...TelegramOption) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram token cannot be empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id cannot be zero")
	}

	cfg := &telegramConfig{
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: defaultTelegramTimeout},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, cfg.endpoint, cfg.client)
	if err != nil {
		return nil, fmt.Errorf("telegram login failed: %w", err)
	}

	return &Telegram{bot: bot, chatID: chatID}, nil
}

// BotName returns the bot's username as reported by Telegram.
func (t *Telegram) BotName() string {
	return t.bot.Self.UserName
}

// Notify implements [Notifier].
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
