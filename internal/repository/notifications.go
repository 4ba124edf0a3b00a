package repository

import (
	"context"
	"fmt"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"
)

const notificationColumns = `id, user_id, type, message, data, status, created_at, updated_at`

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists the notification so users who were offline when it was
// pushed can still read it later.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if len(n.Data) == 0 {
		n.Data = []byte(`{}`)
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, type, message, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at, updated_at`,
		n.UserID, n.Type, n.Message, n.Data).Scan(
		&n.ID, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications newest first, along with the
// unread count.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, int, error) {
	var unread int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = 'unread'`,
		userID).Scan(&unread)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Data,
			&n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, unread, rows.Err()
}

// MarkRead flips one of the user's notifications to read. Scoped to the
// owner so users cannot touch each other's rows.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = 'read', updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification the user has.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = 'read', updated_at = NOW()
		WHERE user_id = $1 AND status = 'unread'`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
