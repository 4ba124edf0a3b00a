package jobs

import (
	"context"
	"log/slog"
	"time"

	"parkhub/internal/service"
)

// SweepJob periodically expires overdue reservations and sends upcoming
// reminders. Both sweeps are idempotent, so overlapping or repeated runs
// are harmless.
type SweepJob struct {
	reservations    *service.ReservationService
	interval        time.Duration
	reminderHorizon time.Duration
	ticker          *time.Ticker
	done            chan bool
}

func NewSweepJob(reservations *service.ReservationService, interval, reminderHorizon time.Duration) *SweepJob {
	return &SweepJob{
		reservations:    reservations,
		interval:        interval,
		reminderHorizon: reminderHorizon,
		done:            make(chan bool),
	}
}

// Start begins the background sweeps.
func (j *SweepJob) Start(ctx context.Context) {
	slog.Info("Starting reservation sweep job",
		"interval", j.interval.String(),
		"reminder_horizon", j.reminderHorizon.String())

	j.ticker = time.NewTicker(j.interval)

	// Run an initial sweep immediately so a restart catches up.
	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Reservation sweep job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the job.
func (j *SweepJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *SweepJob) sweep(ctx context.Context) {
	expired, err := j.reservations.ExpireOverdue(ctx)
	if err != nil {
		slog.Error("Expiry sweep failed", "error", err)
	} else if expired > 0 {
		slog.Info("Expired overdue reservations", "count", expired)
	}

	reminded, err := j.reservations.RemindUpcoming(ctx, j.reminderHorizon)
	if err != nil {
		slog.Error("Reminder sweep failed", "error", err)
	} else if reminded > 0 {
		slog.Info("Sent upcoming reservation reminders", "count", reminded)
	}
}
