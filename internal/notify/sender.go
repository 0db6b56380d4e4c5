package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
)

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// WebhookSender posts notifications as JSON to the configured endpoint
// (typically an email/SMS relay owned by the lab's comms stack).
type WebhookSender struct {
	HTTPClient *http.Client
	URL        string
	Token      string
}

func (s WebhookSender) Send(ctx context.Context, n Notification) error {
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if s.URL == "" {
		return fmt.Errorf("missing webhook url")
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(n); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the relay's error body so operators can see rejections.
		b, _ := io.ReadAll(resp.Body)
		if len(b) > 0 {
			return fmt.Errorf("notify webhook error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return fmt.Errorf("notify webhook error: status=%d", resp.StatusCode)
	}
	return nil
}

// LogSender is the dev fallback when no webhook is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, n Notification) error {
	log.Printf("notify: [%s] user=%s booking=%s %s", n.Event, n.UserID, n.BookingID, n.Message)
	return nil
}

// SenderFromConfig picks the webhook sender when configured, else logging.
func SenderFromConfig(cfg config.NotifyConfig) Sender {
	if cfg.WebhookURL != "" {
		return WebhookSender{URL: cfg.WebhookURL, Token: cfg.Token}
	}
	return LogSender{}
}
