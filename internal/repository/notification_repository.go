package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ecowatch/api/internal/models"
	"ecowatch/api/internal/store"
)

const notificationPrefix = "notification_"

type NotificationRepository struct {
	*Repository[models.Notification]
}

func NewNotificationRepository(ctx context.Context, kv store.KV, logger zerolog.Logger) (*NotificationRepository, error) {
	core, err := New(ctx, kv, logger, Config[models.Notification]{
		Prefix:      notificationPrefix,
		NewestFirst: true,
		ID:          func(n *models.Notification) string { return n.ID },
		SetID:       func(n *models.Notification, id string) { n.ID = id },
		CreatedAt:   func(n *models.Notification) time.Time { return n.CreatedAt },
		SetCreatedAt: func(n *models.Notification, t time.Time) { n.CreatedAt = t },
	})
	if err != nil {
		return nil, err
	}
	return &NotificationRepository{Repository: core}, nil
}

// ListForUser returns the notifications addressed to the given user id.
func (r *NotificationRepository) ListForUser(userID string) []models.Notification {
	var out []models.Notification
	for _, n := range r.List() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) (models.Notification, error) {
	return r.Update(ctx, id, map[string]any{"isRead": true})
}
