package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// APISender delivers messages through an HTTP mail provider (JSON body,
// bearer-style API key). The provider operates at-least-once on its side.
type APISender struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// NewAPISender returns a sender that posts to baseURL with the given API key.
// from is the sender address stamped on every message.
func NewAPISender(apiKey, baseURL, from string) *APISender {
	return &APISender{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Send posts the message to the provider. Returns an error on any non-200
// response so the worker's retry policy decides what happens next.
func (c *APISender) Send(ctx context.Context, m *Message) error {
	if c.APIKey == "" {
		return fmt.Errorf("mail: API key not configured")
	}
	body := map[string]any{
		"from":    c.From,
		"to":      m.To,
		"subject": m.Subject,
	}
	if m.HTML != "" {
		body["html"] = m.HTML
	} else {
		body["text"] = m.Text
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
