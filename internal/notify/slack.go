package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Slack posts messages to an incoming-webhook URL.
type Slack struct {
	webhookURL string
	client     *http.Client
}

type slackMsg struct {
	Text string `json:"text"`
}

// NewSlack creates a Slack webhook notifier. A nil client gets a 10 second timeout.
func NewSlack(webhookURL string, client *http.Client) (*Slack, error) {
	if webhookURL == "" {
		return nil, errors.New("slack webhook url cannot be empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Slack{webhookURL: webhookURL, client: client}, nil
}

// Notify implements [Notifier]. Any non-2xx response is a delivery failure.
func (s *Slack) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(slackMsg{Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack webhook returned status %s", resp.Status)
	}
	return nil
}
