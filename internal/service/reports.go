package service

import (
	"context"
	"time"

	"parkhub/internal/apperrors"
	"parkhub/internal/models"
)

// ReportService builds read-side rollups from the reservation history.
// Reports are generated on demand, stored, and served from storage until a
// refresh is requested.
type ReportService struct {
	reports      ReportStore
	reservations ReservationStore
	lots         LotStore
}

func NewReportService(reports ReportStore, reservations ReservationStore, lots LotStore) *ReportService {
	return &ReportService{
		reports:      reports,
		reservations: reservations,
		lots:         lots,
	}
}

// Daily returns the rollup for one day, generating it when absent or when
// refresh is set.
func (s *ReportService) Daily(ctx context.Context, date time.Time, refresh bool) (*models.DailyReport, error) {
	day := truncateToDay(date)

	if !refresh {
		if rep, err := s.reports.GetDaily(ctx, day); err != nil {
			return nil, err
		} else if rep != nil {
			return rep, nil
		}
	}

	reservations, err := s.reservations.ListStartedBetween(ctx, day, day.AddDate(0, 0, 1), nil)
	if err != nil {
		return nil, err
	}

	capacity, err := s.totalCapacity(ctx, nil)
	if err != nil {
		return nil, err
	}

	agg := aggregate(reservations, capacity)
	rep := &models.DailyReport{
		ReportDate:        day,
		TotalRevenue:      agg.revenue,
		TotalReservations: agg.count,
		AverageDuration:   agg.avgDuration,
		PeakHour:          agg.peakHour,
		OccupancyRate:     agg.occupancy,
	}
	if err := s.reports.UpsertDaily(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Monthly returns the rollup for one calendar month.
func (s *ReportService) Monthly(ctx context.Context, year, month int, refresh bool) (*models.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.ErrInvalidInterval
	}

	if !refresh {
		if rep, err := s.reports.GetMonthly(ctx, year, month); err != nil {
			return nil, err
		} else if rep != nil {
			return rep, nil
		}
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	reservations, err := s.reservations.ListStartedBetween(ctx, from, to, nil)
	if err != nil {
		return nil, err
	}

	capacity, err := s.totalCapacity(ctx, nil)
	if err != nil {
		return nil, err
	}

	agg := aggregate(reservations, 0)

	// Bucket by day for the peak day and the per-day occupancy average.
	byDay := make(map[time.Time][]models.Reservation)
	for _, res := range reservations {
		day := truncateToDay(res.StartTime)
		byDay[day] = append(byDay[day], res)
	}

	var peakDay *time.Time
	peakCount := 0
	occupancySum := 0.0
	for day, dayReservations := range byDay {
		if len(dayReservations) > peakCount {
			peakCount = len(dayReservations)
			d := day
			peakDay = &d
		}
		occupancySum += aggregate(dayReservations, capacity).occupancy
	}

	avgOccupancy := 0.0
	daysInMonth := to.Sub(from).Hours() / 24
	if daysInMonth > 0 {
		avgOccupancy = occupancySum / daysInMonth
	}

	rep := &models.MonthlyReport{
		Year:                 year,
		Month:                month,
		TotalRevenue:         agg.revenue,
		TotalReservations:    agg.count,
		AverageDuration:      agg.avgDuration,
		AverageOccupancyRate: avgOccupancy,
		PeakDay:              peakDay,
	}
	if err := s.reports.UpsertMonthly(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Lot returns the per-lot rollup for one day.
func (s *ReportService) Lot(ctx context.Context, lotID int64, date time.Time, refresh bool) (*models.ParkingLotReport, error) {
	day := truncateToDay(date)

	if !refresh {
		if rep, err := s.reports.GetLot(ctx, lotID, day); err != nil {
			return nil, err
		} else if rep != nil {
			return rep, nil
		}
	}

	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, apperrors.ErrNotFound
	}

	reservations, err := s.reservations.ListStartedBetween(ctx, day, day.AddDate(0, 0, 1), &lotID)
	if err != nil {
		return nil, err
	}

	agg := aggregate(reservations, lot.TotalSpaces)
	rep := &models.ParkingLotReport{
		LotID:             lotID,
		ReportDate:        day,
		TotalRevenue:      agg.revenue,
		TotalReservations: agg.count,
		OccupancyRate:     agg.occupancy,
		AverageDuration:   agg.avgDuration,
		PeakHour:          agg.peakHour,
	}
	if err := s.reports.UpsertLot(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

type aggregates struct {
	revenue     float64
	count       int
	avgDuration float64
	peakHour    *int
	occupancy   float64
}

// aggregate computes the shared rollup numbers. capacity is the number of
// spaces available that day; zero skips the occupancy computation.
func aggregate(reservations []models.Reservation, capacity int) aggregates {
	agg := aggregates{count: len(reservations)}
	if len(reservations) == 0 {
		return agg
	}

	hourCounts := make(map[int]int)
	totalHours := 0.0
	for _, res := range reservations {
		agg.revenue += res.TotalCost()
		totalHours += res.DurationHours()
		hourCounts[res.StartTime.UTC().Hour()]++
	}
	agg.avgDuration = totalHours / float64(len(reservations))

	peakHour, peakCount := 0, 0
	for hour, count := range hourCounts {
		if count > peakCount || (count == peakCount && hour < peakHour) {
			peakHour, peakCount = hour, count
		}
	}
	agg.peakHour = &peakHour

	if capacity > 0 {
		occupancy := totalHours / (float64(capacity) * 24) * 100
		if occupancy > 100 {
			occupancy = 100
		}
		agg.occupancy = occupancy
	}
	return agg
}

// totalCapacity sums space counts across lots, or for one lot when set.
func (s *ReportService) totalCapacity(ctx context.Context, lotID *int64) (int, error) {
	if lotID != nil {
		lot, err := s.lots.GetByID(ctx, *lotID)
		if err != nil {
			return 0, err
		}
		if lot == nil {
			return 0, apperrors.ErrNotFound
		}
		return lot.TotalSpaces, nil
	}

	lots, err := s.lots.List(ctx, "", "")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, lot := range lots {
		total += lot.TotalSpaces
	}
	return total, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
