package service

import (
	"context"
	"fmt"
	"time"

	"parkhub/internal/apperrors"
	"parkhub/internal/logger"
	"parkhub/internal/metrics"
	"parkhub/internal/models"
)

// PaymentService orchestrates paying for a reservation with points and
// refunding. The balance mutation, the ledger entry and the payment row
// transition always commit together; a failed attempt leaves a failed
// payment row behind as an audit record.
type PaymentService struct {
	payments     PaymentStore
	reservations ReservationStore
	notifier     Notifier
	publisher    Publisher

	nowFn func() time.Time
}

func NewPaymentService(payments PaymentStore, reservations ReservationStore, notifier Notifier, publisher Publisher) *PaymentService {
	return &PaymentService{
		payments:     payments,
		reservations: reservations,
		notifier:     notifier,
		publisher:    publisher,
		nowFn:        time.Now,
	}
}

// Pay charges the reservation's points cost to its owner. Exactly one
// payment may ever exist per reservation; a second attempt is a conflict
// regardless of the first one's outcome.
func (s *PaymentService) Pay(ctx context.Context, principal models.Principal, reservationID int64) (*models.Payment, error) {
	res, err := s.loadOwned(ctx, principal, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != models.ReservationActive {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, apperrors.ErrInvalidState)
	}

	amount := res.PointsCost()
	payment := &models.Payment{
		ReservationID: res.ID,
		PointsAmount:  amount,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Payment for reservation #%d", res.ID)
	completed, err := s.payments.CompleteWithDebit(ctx, payment.ID, res.UserID, amount, description)
	if err != nil {
		// Any settlement failure leaves a failed payment row with the
		// captured error as the audit record; the balance is untouched.
		if markErr := s.payments.MarkFailed(ctx, payment.ID, err.Error()); markErr != nil {
			logger.WithContext(ctx).Error("Failed to record failed payment",
				"payment_id", payment.ID,
				"error", markErr.Error())
		}
		metrics.PaymentsProcessed.WithLabelValues("failed").Inc()
		s.fanOut(ctx, res.UserID, &models.Payment{
			ID:            payment.ID,
			ReservationID: res.ID,
			PointsAmount:  amount,
			Status:        models.PaymentFailed,
		}, models.EventPaymentFailed,
			fmt.Sprintf("Payment for reservation #%d failed", res.ID),
			err.Error())
		return nil, err
	}

	metrics.PaymentsProcessed.WithLabelValues("completed").Inc()
	logger.WithContext(ctx).Info("Payment completed",
		"payment_id", completed.ID,
		"reservation_id", res.ID,
		"points_amount", amount)

	s.fanOut(ctx, res.UserID, completed, models.EventPaymentCompleted,
		fmt.Sprintf("Paid %d points for reservation #%d", amount, res.ID), "")
	return completed, nil
}

// Get returns a payment the principal may see.
func (s *PaymentService) Get(ctx context.Context, principal models.Principal, paymentID int64) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.ErrNotFound
	}
	if _, err := s.loadOwned(ctx, principal, payment.ReservationID); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetForReservation returns the reservation's payment, if any.
func (s *PaymentService) GetForReservation(ctx context.Context, principal models.Principal, reservationID int64) (*models.Payment, error) {
	if _, err := s.loadOwned(ctx, principal, reservationID); err != nil {
		return nil, err
	}
	payment, err := s.payments.GetByReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.ErrNotFound
	}
	return payment, nil
}

// Refund returns the points of a completed payment and cancels the
// reservation if it is still active.
func (s *PaymentService) Refund(ctx context.Context, principal models.Principal, paymentID int64) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.ErrNotFound
	}

	res, err := s.loadOwned(ctx, principal, payment.ReservationID)
	if err != nil {
		return nil, err
	}

	refunded, err := s.payments.RefundWithCredit(ctx, paymentID, res.UserID,
		fmt.Sprintf("Refund for reservation #%d", res.ID))
	if err != nil {
		return nil, err
	}

	metrics.PaymentsProcessed.WithLabelValues("refunded").Inc()
	s.fanOut(ctx, res.UserID, refunded, models.EventPaymentRefunded,
		fmt.Sprintf("Refunded %d points for reservation #%d", refunded.PointsAmount, res.ID), "")
	return refunded, nil
}

// loadOwned loads the reservation and enforces that the principal owns it
// or is an admin.
func (s *PaymentService) loadOwned(ctx context.Context, principal models.Principal, reservationID int64) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrNotFound)
	}
	if res.UserID != principal.UserID && !principal.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	return res, nil
}

func (s *PaymentService) fanOut(ctx context.Context, userID int64, payment *models.Payment, kind, message, reason string) {
	if s.notifier != nil {
		uid := userID
		s.notifier.Notify(ctx, &uid, models.Event{
			Kind:    kind,
			Message: message,
			Payload: map[string]any{
				"payment_id":     payment.ID,
				"reservation_id": payment.ReservationID,
				"points_amount":  payment.PointsAmount,
				"status":         payment.Status,
			},
		})
	}

	if s.publisher != nil {
		event := models.PaymentEvent{
			PaymentID:     payment.ID,
			ReservationID: payment.ReservationID,
			PointsAmount:  payment.PointsAmount,
			Status:        string(payment.Status),
			Reason:        reason,
			Timestamp:     s.nowFn(),
		}
		if err := s.publisher.Publish(kind, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish payment event",
				"payment_id", payment.ID,
				"event_type", kind,
				"error", err.Error())
		}
	}
}
