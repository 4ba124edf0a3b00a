package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkhub/internal/apperrors"
	"parkhub/internal/models"
)

// memReports stores generated rollups keyed the way the SQL store does.
type memReports struct {
	daily   map[time.Time]*models.DailyReport
	monthly map[[2]int]*models.MonthlyReport
	lot     map[int64]map[time.Time]*models.ParkingLotReport
}

func newMemReports() *memReports {
	return &memReports{
		daily:   make(map[time.Time]*models.DailyReport),
		monthly: make(map[[2]int]*models.MonthlyReport),
		lot:     make(map[int64]map[time.Time]*models.ParkingLotReport),
	}
}

func (r *memReports) UpsertDaily(ctx context.Context, rep *models.DailyReport) error {
	r.daily[rep.ReportDate] = rep
	return nil
}

func (r *memReports) GetDaily(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	return r.daily[date], nil
}

func (r *memReports) ListDaily(ctx context.Context, from, to time.Time) ([]models.DailyReport, error) {
	var out []models.DailyReport
	for date, rep := range r.daily {
		if !date.Before(from) && date.Before(to) {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (r *memReports) UpsertMonthly(ctx context.Context, rep *models.MonthlyReport) error {
	r.monthly[[2]int{rep.Year, rep.Month}] = rep
	return nil
}

func (r *memReports) GetMonthly(ctx context.Context, year, month int) (*models.MonthlyReport, error) {
	return r.monthly[[2]int{year, month}], nil
}

func (r *memReports) UpsertLot(ctx context.Context, rep *models.ParkingLotReport) error {
	if r.lot[rep.LotID] == nil {
		r.lot[rep.LotID] = make(map[time.Time]*models.ParkingLotReport)
	}
	r.lot[rep.LotID][rep.ReportDate] = rep
	return nil
}

func (r *memReports) GetLot(ctx context.Context, lotID int64, date time.Time) (*models.ParkingLotReport, error) {
	return r.lot[lotID][date], nil
}

// seedReservation inserts a historical reservation directly, bypassing the
// create-time validation that rejects past start times.
func seedReservation(m *memStore, lotID int64, status models.ReservationStatus, rate float64, start time.Time, hours int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := &models.Reservation{
		ID:         m.id(),
		LotID:      lotID,
		UserID:     7,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(hours) * time.Hour),
		Status:     status,
		HourlyRate: rate,
	}
	m.reservations[res.ID] = res
}

func TestDailyReport(t *testing.T) {
	store := newMemStore()
	lot := store.addLot(2.0, 10)
	reports := newMemReports()
	svc := NewReportService(reports, reservationStore{store}, store)

	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	seedReservation(store, lot.ID, models.ReservationCompleted, 2.0, day.Add(9*time.Hour), 2)
	seedReservation(store, lot.ID, models.ReservationCompleted, 2.0, day.Add(9*time.Hour), 4)
	seedReservation(store, lot.ID, models.ReservationActive, 2.0, day.Add(14*time.Hour), 6)
	// Cancelled reservations earn nothing and are excluded.
	seedReservation(store, lot.ID, models.ReservationCancelled, 2.0, day.Add(9*time.Hour), 8)
	// Outside the requested day.
	seedReservation(store, lot.ID, models.ReservationCompleted, 2.0, day.AddDate(0, 0, 1).Add(9*time.Hour), 2)

	rep, err := svc.Daily(context.Background(), day.Add(15*time.Hour), false)
	require.NoError(t, err)

	assert.Equal(t, day, rep.ReportDate)
	assert.Equal(t, 3, rep.TotalReservations)
	assert.Equal(t, 24.0, rep.TotalRevenue)
	assert.Equal(t, 4.0, rep.AverageDuration)
	require.NotNil(t, rep.PeakHour)
	assert.Equal(t, 9, *rep.PeakHour)
	// 12 reserved hours over 10 spaces * 24h.
	assert.InDelta(t, 5.0, rep.OccupancyRate, 0.001)
}

func TestDailyReportServedFromStorage(t *testing.T) {
	store := newMemStore()
	lot := store.addLot(2.0, 10)
	reports := newMemReports()
	svc := NewReportService(reports, reservationStore{store}, store)

	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	rep, err := svc.Daily(context.Background(), day, false)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalReservations)
	assert.Nil(t, rep.PeakHour)

	// New data does not show up until a refresh is requested.
	seedReservation(store, lot.ID, models.ReservationCompleted, 2.0, day.Add(9*time.Hour), 2)

	rep, err = svc.Daily(context.Background(), day, false)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalReservations)

	rep, err = svc.Daily(context.Background(), day, true)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalReservations)
}

func TestMonthlyReport(t *testing.T) {
	store := newMemStore()
	lot := store.addLot(1.0, 5)
	reports := newMemReports()
	svc := NewReportService(reports, reservationStore{store}, store)

	first := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	seedReservation(store, lot.ID, models.ReservationCompleted, 1.0, first.Add(10*time.Hour), 2)
	seedReservation(store, lot.ID, models.ReservationCompleted, 1.0, first.AddDate(0, 0, 4).Add(8*time.Hour), 3)
	seedReservation(store, lot.ID, models.ReservationCompleted, 1.0, first.AddDate(0, 0, 4).Add(12*time.Hour), 1)

	rep, err := svc.Monthly(context.Background(), 2026, 7, false)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TotalReservations)
	assert.Equal(t, 6.0, rep.TotalRevenue)
	assert.Equal(t, 2.0, rep.AverageDuration)
	require.NotNil(t, rep.PeakDay)
	assert.Equal(t, first.AddDate(0, 0, 4), *rep.PeakDay)

	_, err = svc.Monthly(context.Background(), 2026, 13, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)
}

func TestLotReport(t *testing.T) {
	store := newMemStore()
	lotA := store.addLot(2.0, 4)
	lotB := store.addLot(3.0, 4)
	reports := newMemReports()
	svc := NewReportService(reports, reservationStore{store}, store)

	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	seedReservation(store, lotA.ID, models.ReservationCompleted, 2.0, day.Add(9*time.Hour), 2)
	seedReservation(store, lotB.ID, models.ReservationCompleted, 3.0, day.Add(9*time.Hour), 2)

	rep, err := svc.Lot(context.Background(), lotA.ID, day, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalReservations)
	assert.Equal(t, 4.0, rep.TotalRevenue)

	_, err = svc.Lot(context.Background(), 9999, day, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOccupancyCappedAtFull(t *testing.T) {
	// A tiny lot with long reservations cannot report more than 100%.
	reservations := []models.Reservation{
		{StartTime: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), HourlyRate: 1},
		{StartTime: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), HourlyRate: 1},
	}
	agg := aggregate(reservations, 1)
	assert.Equal(t, 100.0, agg.occupancy)
}

func TestAggregatePeakHourTieBreak(t *testing.T) {
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	reservations := []models.Reservation{
		{StartTime: day.Add(14 * time.Hour), EndTime: day.Add(15 * time.Hour)},
		{StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)},
	}
	agg := aggregate(reservations, 0)
	require.NotNil(t, agg.peakHour)
	assert.Equal(t, 9, *agg.peakHour)
	assert.Equal(t, 0.0, agg.occupancy)
}
