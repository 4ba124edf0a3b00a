package models

import "time"

// Notification kinds pushed over the WebSocket hub and published to NATS.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
	EventReservationExpired   = "reservation.expired"
	EventReservationUpcoming  = "reservation.upcoming"
	EventPaymentCompleted     = "payment.completed"
	EventPaymentFailed        = "payment.failed"
	EventPaymentRefunded      = "payment.refunded"
)

// Event is the payload handed to the notification sink. Kind is one of the
// constants above; Payload is kind-specific.
type Event struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ReservationEvent is published to NATS on reservation transitions.
type ReservationEvent struct {
	ReservationID int64     `json:"reservation_id"`
	LotID         int64     `json:"lot_id"`
	SpaceID       int64     `json:"space_id"`
	UserID        int64     `json:"user_id"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentEvent is published to NATS on payment transitions.
type PaymentEvent struct {
	PaymentID     int64     `json:"payment_id"`
	ReservationID int64     `json:"reservation_id"`
	PointsAmount  int       `json:"points_amount"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
