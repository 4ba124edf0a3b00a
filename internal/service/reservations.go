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

// ReservationService owns the reservation lifecycle: creation with the
// overlap rule, cancellation and completion, and the two background sweeps.
type ReservationService struct {
	reservations ReservationStore
	lots         LotStore
	spaces       SpaceStore
	notifier     Notifier
	publisher    Publisher
	maxDuration  time.Duration

	// nowFn is swapped in tests to pin the clock.
	nowFn func() time.Time
}

func NewReservationService(reservations ReservationStore, lots LotStore, spaces SpaceStore, notifier Notifier, publisher Publisher, maxDuration time.Duration) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		lots:         lots,
		spaces:       spaces,
		notifier:     notifier,
		publisher:    publisher,
		maxDuration:  maxDuration,
		nowFn:        time.Now,
	}
}

// Create validates the requested interval, runs the atomic
// reserve-or-conflict repository operation and fans out the created event.
func (s *ReservationService) Create(ctx context.Context, principal models.Principal, req *models.CreateReservationRequest) (*models.Reservation, error) {
	userID := principal.UserID
	if req.UserID != nil && *req.UserID != principal.UserID {
		if !principal.IsAdmin {
			return nil, fmt.Errorf("only admins may reserve on behalf of another user: %w", apperrors.ErrForbidden)
		}
		userID = *req.UserID
	}

	now := s.nowFn()
	if !req.StartTime.Before(req.EndTime) {
		return nil, fmt.Errorf("start_time must be before end_time: %w", apperrors.ErrInvalidInterval)
	}
	if req.EndTime.Sub(req.StartTime) > s.maxDuration {
		return nil, fmt.Errorf("reservation exceeds %s: %w", s.maxDuration, apperrors.ErrInvalidInterval)
	}
	// A small grace window tolerates clock skew on "starts now" requests.
	if req.StartTime.Before(now.Add(-time.Minute)) {
		return nil, fmt.Errorf("start_time is in the past: %w", apperrors.ErrInvalidInterval)
	}

	lot, err := s.lots.GetByID(ctx, req.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("lot %d: %w", req.LotID, apperrors.ErrNotFound)
	}
	if lot.Status != models.LotActive {
		return nil, fmt.Errorf("lot is %s: %w", lot.Status, apperrors.ErrInvalidState)
	}

	res := &models.Reservation{
		LotID:        req.LotID,
		SpaceID:      req.SpaceID,
		UserID:       userID,
		VehiclePlate: req.VehiclePlate,
		Notes:        req.Notes,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		if err == apperrors.ErrSlotConflict {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	metrics.ReservationsCreated.Inc()
	logger.WithContext(ctx).Info("Reservation created",
		"reservation_id", res.ID,
		"lot_id", res.LotID,
		"space_id", res.SpaceID,
		"user_id", res.UserID)

	s.fanOut(ctx, res, models.EventReservationCreated,
		fmt.Sprintf("Reservation #%d confirmed for space %d", res.ID, res.SpaceID))
	return res, nil
}

// Get returns the reservation if the principal owns it or is an admin.
func (s *ReservationService) Get(ctx context.Context, principal models.Principal, id int64) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.ErrNotFound
	}
	if res.UserID != principal.UserID && !principal.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	return res, nil
}

// ListMine returns the principal's reservations, optionally by status.
func (s *ReservationService) ListMine(ctx context.Context, principal models.Principal, status string) ([]models.Reservation, error) {
	return s.reservations.ListByUser(ctx, principal.UserID, status)
}

// Cancel moves an active reservation to cancelled and returns its space to
// the available pool.
func (s *ReservationService) Cancel(ctx context.Context, principal models.Principal, id int64) (*models.Reservation, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return nil, err
	}

	res, err := s.reservations.Finish(ctx, id, models.ReservationCancelled, true)
	if err != nil {
		return nil, err
	}

	metrics.ReservationsFinished.WithLabelValues("cancelled").Inc()
	s.fanOut(ctx, res, models.EventReservationCancelled,
		fmt.Sprintf("Reservation #%d cancelled", res.ID))
	return res, nil
}

// Complete marks an active reservation as fulfilled. The space keeps its
// current state; freeing it is the checkout flow's job.
func (s *ReservationService) Complete(ctx context.Context, principal models.Principal, id int64) (*models.Reservation, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return nil, err
	}

	res, err := s.reservations.Finish(ctx, id, models.ReservationCompleted, false)
	if err != nil {
		return nil, err
	}

	metrics.ReservationsFinished.WithLabelValues("completed").Inc()
	s.fanOut(ctx, res, models.EventReservationCompleted,
		fmt.Sprintf("Reservation #%d completed", res.ID))
	return res, nil
}

// ExpireOverdue moves every active reservation whose end time has passed to
// expired and restores its space. Reservations already expired by an earlier
// run are not candidates, so the sweep is idempotent.
func (s *ReservationService) ExpireOverdue(ctx context.Context) (int, error) {
	start := s.nowFn()
	defer func() {
		metrics.SweepDuration.WithLabelValues("expire").Observe(time.Since(start).Seconds())
	}()

	candidates, err := s.reservations.ListActiveEndedBefore(ctx, start)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		res, err := s.reservations.Finish(ctx, candidate.ID, models.ReservationExpired, true)
		if err != nil {
			// A concurrent cancel or payment refund may have finished
			// it first. Skip and keep sweeping.
			logger.Get().Warn("Failed to expire reservation",
				"reservation_id", candidate.ID,
				"error", err.Error())
			continue
		}
		expired++
		metrics.ReservationsFinished.WithLabelValues("expired").Inc()
		s.fanOut(ctx, res, models.EventReservationExpired,
			fmt.Sprintf("Reservation #%d expired", res.ID))
	}
	return expired, nil
}

// RemindUpcoming notifies users whose reservations start within the horizon.
// Each reservation is reminded at most once.
func (s *ReservationService) RemindUpcoming(ctx context.Context, horizon time.Duration) (int, error) {
	start := s.nowFn()
	defer func() {
		metrics.SweepDuration.WithLabelValues("remind").Observe(time.Since(start).Seconds())
	}()

	candidates, err := s.reservations.ListActiveStartingBetween(ctx, start, start.Add(horizon))
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, res := range candidates {
		if err := s.reservations.MarkReminded(ctx, res.ID, start); err != nil {
			logger.Get().Warn("Failed to mark reservation reminded",
				"reservation_id", res.ID,
				"error", err.Error())
			continue
		}
		reminded++
		if s.notifier != nil {
			userID := res.UserID
			s.notifier.Notify(ctx, &userID, models.Event{
				Kind:    models.EventReservationUpcoming,
				Message: fmt.Sprintf("Reservation #%d starts at %s", res.ID, res.StartTime.Format(time.RFC3339)),
				Payload: map[string]any{
					"reservation_id": res.ID,
					"lot_id":         res.LotID,
					"space_id":       res.SpaceID,
					"start_time":     res.StartTime,
				},
			})
		}
	}
	return reminded, nil
}

// fanOut pushes the user notification and publishes the bus event. Both are
// best effort and run after the state change committed.
func (s *ReservationService) fanOut(ctx context.Context, res *models.Reservation, kind, message string) {
	if s.notifier != nil {
		userID := res.UserID
		s.notifier.Notify(ctx, &userID, models.Event{
			Kind:    kind,
			Message: message,
			Payload: map[string]any{
				"reservation_id": res.ID,
				"lot_id":         res.LotID,
				"space_id":       res.SpaceID,
				"status":         res.Status,
			},
		})
	}

	if s.publisher != nil {
		event := models.ReservationEvent{
			ReservationID: res.ID,
			LotID:         res.LotID,
			SpaceID:       res.SpaceID,
			UserID:        res.UserID,
			Status:        string(res.Status),
			Timestamp:     s.nowFn(),
		}
		if err := s.publisher.Publish(kind, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish reservation event",
				"reservation_id", res.ID,
				"event_type", kind,
				"error", err.Error())
		}
	}
}
