package notify

import (
	"context"
	"encoding/json"

	"parkhub/internal/logger"
	"parkhub/internal/models"
	"parkhub/internal/repository"
)

// Dispatcher persists a notification for its recipient and pushes it to
// connected clients. Dispatch is best effort: callers invoke it after their
// transaction commits and never fail the operation on a delivery error.
type Dispatcher struct {
	hub   *Hub
	repo  *repository.NotificationRepository
	store bool
}

func NewDispatcher(hub *Hub, repo *repository.NotificationRepository) *Dispatcher {
	return &Dispatcher{hub: hub, repo: repo, store: repo != nil}
}

// Notify delivers the event. A nil userID broadcasts to every client
// without persisting; a concrete userID stores the notification and pushes
// it to that user's group only.
func (d *Dispatcher) Notify(ctx context.Context, userID *int64, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Get().Error("Failed to marshal notification event",
			"kind", event.Kind,
			"error", err.Error())
		return
	}

	if userID == nil {
		d.hub.Broadcast(payload)
		return
	}

	if d.store {
		data, _ := json.Marshal(event.Payload)
		n := &models.Notification{
			UserID:  *userID,
			Type:    event.Kind,
			Message: event.Message,
			Data:    data,
		}
		if err := d.repo.Create(ctx, n); err != nil {
			logger.Get().Error("Failed to persist notification",
				"user_id", *userID,
				"kind", event.Kind,
				"error", err.Error())
		}
	}

	d.hub.SendToUser(*userID, payload)
}
