package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TelegramSender delivers notifications via the Telegram Bot API. Rate-limit
// responses (429) are retried with exponential backoff; other failures are
// returned to the dispatcher, which logs and drops them.
type TelegramSender struct {
	token      string
	chatID     string
	client     *http.Client
	maxRetries int
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// ID. It uses a default HTTP client with a 10-second timeout.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:      token,
		chatID:     chatID,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
	}
}

// Send posts a message to the configured Telegram chat using the sendMessage
// API. The title is rendered in bold using Markdown syntax.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	text := fmt.Sprintf("*%s*\n%s", title, message)

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	delay := time.Second
	for attempt := 0; ; attempt++ {
		status, respBody, err := t.post(ctx, url, body)
		if err != nil {
			return fmt.Errorf("telegram: send request: %w", err)
		}
		if status >= 200 && status < 300 {
			return nil
		}
		if status != http.StatusTooManyRequests || attempt >= t.maxRetries {
			return fmt.Errorf("telegram: unexpected status %d: %s", status, respBody)
		}

		// Rate limited: back off and retry.
		select {
		case <-ctx.Done():
			return fmt.Errorf("telegram: retry wait: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// post issues one sendMessage request and returns the status and a truncated
// body for error reporting.
func (t *TelegramSender) post(ctx context.Context, url string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return resp.StatusCode, string(respBody), nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

// Compile-time interface check.
var _ Sender = (*TelegramSender)(nil)
