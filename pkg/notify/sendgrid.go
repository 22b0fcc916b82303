package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SendGrid sends report emails through the SendGrid v3 mail API.
type SendGrid struct {
	APIKey string
	From   string
	To     string
	client *http.Client
}

func NewSendGrid(apiKey, from, to string) *SendGrid {
	return &SendGrid{
		APIKey: apiKey,
		From:   from,
		To:     to,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewSendGridWithClient constructs a SendGrid sender using the supplied HTTP
// client.
func NewSendGridWithClient(apiKey, from, to string, client *http.Client) *SendGrid {
	return &SendGrid{APIKey: apiKey, From: from, To: to, client: client}
}

func (s *SendGrid) Send(ctx context.Context, subject, htmlBody string) error {
	if strings.TrimSpace(s.APIKey) == "" {
		return errors.New("sendgrid: API key is missing")
	}
	if s.From == "" || s.To == "" {
		return errors.New("sendgrid: from and to addresses are required")
	}

	body := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": s.To}}},
		},
		"from":    map[string]string{"email": s.From},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/html", "value": htmlBody},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.sendgrid.com/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid answers 202 on success.
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid http %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
