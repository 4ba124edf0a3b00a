package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationStatusTransitions(t *testing.T) {
	assert.True(t, ReservationActive.CanTransitionTo(ReservationCompleted))
	assert.True(t, ReservationActive.CanTransitionTo(ReservationCancelled))
	assert.True(t, ReservationActive.CanTransitionTo(ReservationExpired))
	assert.False(t, ReservationActive.CanTransitionTo(ReservationActive))

	// Terminal states allow nothing, including going back to active.
	for _, terminal := range []ReservationStatus{ReservationCompleted, ReservationCancelled, ReservationExpired} {
		assert.True(t, terminal.Terminal())
		assert.False(t, terminal.CanTransitionTo(ReservationActive))
		assert.False(t, terminal.CanTransitionTo(ReservationExpired))
	}
	assert.False(t, ReservationActive.Terminal())
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentCompleted))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentFailed))
	assert.False(t, PaymentPending.CanTransitionTo(PaymentRefunded))

	assert.True(t, PaymentCompleted.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentCompleted.CanTransitionTo(PaymentFailed))

	assert.False(t, PaymentFailed.CanTransitionTo(PaymentCompleted))
	assert.False(t, PaymentRefunded.CanTransitionTo(PaymentPending))
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     int
		want                           bool
	}{
		{"identical", 0, 2, 0, 2, true},
		{"partial overlap", 0, 2, 1, 3, true},
		{"containment", 0, 4, 1, 2, true},
		{"adjacent intervals touch but do not overlap", 0, 2, 2, 4, false},
		{"adjacent the other way", 2, 4, 0, 2, false},
		{"disjoint", 0, 1, 3, 4, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(at(tc.aStart), at(tc.aEnd), at(tc.bStart), at(tc.bEnd))
			assert.Equal(t, tc.want, got)
			// The rule is symmetric.
			assert.Equal(t, tc.want, Overlaps(at(tc.bStart), at(tc.bEnd), at(tc.aStart), at(tc.aEnd)))
		})
	}
}

func TestReservationCost(t *testing.T) {
	start := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	res := &Reservation{
		StartTime:  start,
		EndTime:    start.Add(90 * time.Minute),
		HourlyRate: 2.5,
	}

	assert.Equal(t, 1.5, res.DurationHours())
	assert.Equal(t, 3.75, res.TotalCost())
	// Points are whole, rounded up.
	assert.Equal(t, 4, res.PointsCost())

	res.EndTime = start.Add(2 * time.Hour)
	assert.Equal(t, 5, res.PointsCost())
}

func TestOccupancyRate(t *testing.T) {
	lot := &ParkingLot{TotalSpaces: 10, AvailableSpaces: 4}
	assert.Equal(t, 60.0, lot.OccupancyRate())

	empty := &ParkingLot{}
	assert.Equal(t, 0.0, empty.OccupancyRate())
}

func TestPrincipal(t *testing.T) {
	assert.False(t, Principal{}.Authenticated())
	assert.True(t, Principal{UserID: 7}.Authenticated())
}
