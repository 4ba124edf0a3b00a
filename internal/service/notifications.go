package service

import (
	"context"

	"parkhub/internal/models"
)

// NotificationService serves the persisted notification feed.
type NotificationService struct {
	notifications NotificationStore
}

func NewNotificationService(notifications NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the principal's notifications with the unread count.
func (s *NotificationService) List(ctx context.Context, principal models.Principal, limit int) ([]models.Notification, int, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.notifications.ListByUser(ctx, principal.UserID, limit)
}

// MarkRead marks one of the principal's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, principal models.Principal, notificationID int64) error {
	return s.notifications.MarkRead(ctx, principal.UserID, notificationID)
}

// MarkAllRead marks every unread notification and returns the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal models.Principal) (int64, error) {
	return s.notifications.MarkAllRead(ctx, principal.UserID)
}
