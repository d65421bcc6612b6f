// Package notify sends alert messages through an external channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Message is one templated alert.
type Message struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Recipient string `json:"recipient"`
}

// Notifier delivers alert messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookNotifier posts messages as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier for the given endpoint.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message.
func (n *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes messages to the log. Used when no channel is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

// Send logs the message.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Warn().
		Str("subject", msg.Subject).
		Str("recipient", msg.Recipient).
		Msg(msg.Body)
	return nil
}
