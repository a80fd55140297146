package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

// WebhookNotifier POSTs every notification as JSON to a chat bridge.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Heist-Event", string(n.Type))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	slog.Debug("webhook delivered", "url", w.url, "type", n.Type, "event_id", n.EventID)
	return nil
}

// ChannelNotifier hands notifications to an in-process consumer. When the
// buffer is full the notification is dropped rather than blocking the engine.
type ChannelNotifier struct {
	ch chan domain.Notification
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan domain.Notification, buffer)}
}

func (c *ChannelNotifier) Notify(_ context.Context, n domain.Notification) error {
	select {
	case c.ch <- n:
		return nil
	default:
		return fmt.Errorf("notification buffer full, dropped %s", n.Type)
	}
}

func (c *ChannelNotifier) C() <-chan domain.Notification {
	return c.ch
}

// FanOut delivers to every notifier and joins their errors.
type FanOut []domain.Notifier

func (f FanOut) Notify(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, target := range f {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.Notifier = (*WebhookNotifier)(nil)
	_ domain.Notifier = (*ChannelNotifier)(nil)
	_ domain.Notifier = FanOut(nil)
)
