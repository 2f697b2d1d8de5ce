package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
)

// Relay forwards a persisted notification to an outside channel.
type Relay interface {
	Relay(ctx context.Context, notification *models.Notification) error
}

type webhookPayload struct {
	ID         string `json:"id"`
	Audience   string `json:"audience"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	GatePassID string `json:"gatepassId,omitempty"`
	PassNumber string `json:"passNumber,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// WebhookRelay posts notifications as JSON to a configured URL.
type WebhookRelay struct {
	client *resty.Client
	url    string
}

// NewWebhookRelay returns nil when no webhook URL is configured.
func NewWebhookRelay(cfg config.NotificationsConfig) (*WebhookRelay, error) {
	url := strings.TrimSpace(cfg.WebhookURL)
	if url == "" {
		return nil, nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("webhook url must be http(s): %q", url)
	}
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.WebhookToken != "" {
		client.SetAuthToken(cfg.WebhookToken)
	}
	return &WebhookRelay{client: client, url: url}, nil
}

// Relay is a no-op on a nil relay.
func (w *WebhookRelay) Relay(ctx context.Context, notification *models.Notification) error {
	if w == nil {
		return nil
	}
	if notification == nil {
		return errors.New("notification required")
	}
	payload := webhookPayload{
		ID:         notification.ID.String(),
		Audience:   string(notification.Audience),
		Title:      notification.Title,
		Message:    notification.Message,
		PassNumber: notification.PassNumber,
		CreatedAt:  notification.CreatedAt.UTC().Format(time.RFC3339),
	}
	if notification.GatePassID != nil {
		payload.GatePassID = notification.GatePassID.String()
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
