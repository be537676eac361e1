package notifications

import (
	"context"
	"encoding/json"
	"time"

	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/repository"
)

// Sink records notification events. The stored row is the source of truth;
// the Redis publish is best-effort fan-out for any live subscriber.
type Sink struct {
	repo     repository.NotificationRepository
	notifier *Notifier
}

// NewSink creates a notification sink.
func NewSink(repo repository.NotificationRepository, notifier *Notifier) *Sink {
	return &Sink{repo: repo, notifier: notifier}
}

type eventPayload struct {
	FromUserID uint      `json:"from_user_id"`
	ToUserID   uint      `json:"to_user_id"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record persists the event and publishes it to the recipient's channel.
func (s *Sink) Record(ctx context.Context, fromUserID, toUserID uint, notificationType string) error {
	notification := &models.Notification{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Type:       notificationType,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		observability.NotificationsPublished.WithLabelValues(notificationType, "error").Inc()
		return err
	}
	observability.NotificationsPublished.WithLabelValues(notificationType, "ok").Inc()

	payload, err := json.Marshal(eventPayload{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Type:       notificationType,
		CreatedAt:  notification.CreatedAt,
	})
	if err != nil {
		return nil
	}
	// Publish failures are not the caller's problem; the row is already stored.
	_ = s.notifier.PublishUser(ctx, toUserID, string(payload))
	return nil
}
