package service

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/dto"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier 新留言的外部通知，例如邮件中继
type Notifier interface {
	NotifyContact(ctx context.Context, msg *dto.ContactMessageDTO) error
}

type webhookNotifier struct {
	client *resty.Client
	url    string
}

// NewNotifier 未配置 webhook 时返回 nil
func NewNotifier(cfg config.NotifyConfig) Notifier {
	if cfg.WebhookURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &webhookNotifier{client: client, url: cfg.WebhookURL}
}

func (s *webhookNotifier) NotifyContact(ctx context.Context, msg *dto.ContactMessageDTO) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"event":   "contact.created",
			"contact": msg,
		}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("post contact webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("contact webhook returned %s", resp.Status())
	}
	log.DebugContext(ctx, "contact webhook delivered", "id", msg.ID, "status", resp.StatusCode())
	return nil
}
