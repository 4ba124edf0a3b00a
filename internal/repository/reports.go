package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkhub/internal/database"
	"parkhub/internal/models"
)

type ReportRepository struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// UpsertDaily writes the rollup for one day. Regenerating a report for the
// same date overwrites the previous numbers.
func (r *ReportRepository) UpsertDaily(ctx context.Context, rep *models.DailyReport) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_reports (report_date, total_revenue, total_reservations, average_duration, peak_hour, occupancy_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (report_date) DO UPDATE SET
			total_revenue = EXCLUDED.total_revenue,
			total_reservations = EXCLUDED.total_reservations,
			average_duration = EXCLUDED.average_duration,
			peak_hour = EXCLUDED.peak_hour,
			occupancy_rate = EXCLUDED.occupancy_rate,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rep.ReportDate, rep.TotalRevenue, rep.TotalReservations, rep.AverageDuration,
		rep.PeakHour, rep.OccupancyRate).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert daily report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetDaily(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	rep := &models.DailyReport{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, report_date, total_revenue, total_reservations, average_duration, peak_hour, occupancy_rate, created_at, updated_at
		FROM daily_reports WHERE report_date = $1`, date).Scan(
		&rep.ID, &rep.ReportDate, &rep.TotalRevenue, &rep.TotalReservations,
		&rep.AverageDuration, &rep.PeakHour, &rep.OccupancyRate, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily report: %w", err)
	}
	return rep, nil
}

// ListDaily returns daily rollups within [from, to] newest first, feeding
// the monthly aggregation.
func (r *ReportRepository) ListDaily(ctx context.Context, from, to time.Time) ([]models.DailyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, report_date, total_revenue, total_reservations, average_duration, peak_hour, occupancy_rate, created_at, updated_at
		FROM daily_reports
		WHERE report_date BETWEEN $1 AND $2
		ORDER BY report_date DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily reports: %w", err)
	}
	defer rows.Close()

	var out []models.DailyReport
	for rows.Next() {
		var rep models.DailyReport
		if err := rows.Scan(&rep.ID, &rep.ReportDate, &rep.TotalRevenue, &rep.TotalReservations,
			&rep.AverageDuration, &rep.PeakHour, &rep.OccupancyRate, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *ReportRepository) UpsertMonthly(ctx context.Context, rep *models.MonthlyReport) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO monthly_reports (year, month, total_revenue, total_reservations, average_duration, average_occupancy_rate, peak_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (year, month) DO UPDATE SET
			total_revenue = EXCLUDED.total_revenue,
			total_reservations = EXCLUDED.total_reservations,
			average_duration = EXCLUDED.average_duration,
			average_occupancy_rate = EXCLUDED.average_occupancy_rate,
			peak_day = EXCLUDED.peak_day,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rep.Year, rep.Month, rep.TotalRevenue, rep.TotalReservations, rep.AverageDuration,
		rep.AverageOccupancyRate, rep.PeakDay).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetMonthly(ctx context.Context, year, month int) (*models.MonthlyReport, error) {
	rep := &models.MonthlyReport{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, year, month, total_revenue, total_reservations, average_duration, average_occupancy_rate, peak_day, created_at, updated_at
		FROM monthly_reports WHERE year = $1 AND month = $2`, year, month).Scan(
		&rep.ID, &rep.Year, &rep.Month, &rep.TotalRevenue, &rep.TotalReservations,
		&rep.AverageDuration, &rep.AverageOccupancyRate, &rep.PeakDay, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepository) UpsertLot(ctx context.Context, rep *models.ParkingLotReport) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO parking_lot_reports (lot_id, report_date, total_revenue, total_reservations, occupancy_rate, average_duration, peak_hour)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (lot_id, report_date) DO UPDATE SET
			total_revenue = EXCLUDED.total_revenue,
			total_reservations = EXCLUDED.total_reservations,
			occupancy_rate = EXCLUDED.occupancy_rate,
			average_duration = EXCLUDED.average_duration,
			peak_hour = EXCLUDED.peak_hour,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rep.LotID, rep.ReportDate, rep.TotalRevenue, rep.TotalReservations,
		rep.OccupancyRate, rep.AverageDuration, rep.PeakHour).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert lot report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetLot(ctx context.Context, lotID int64, date time.Time) (*models.ParkingLotReport, error) {
	rep := &models.ParkingLotReport{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, lot_id, report_date, total_revenue, total_reservations, occupancy_rate, average_duration, peak_hour, created_at, updated_at
		FROM parking_lot_reports WHERE lot_id = $1 AND report_date = $2`, lotID, date).Scan(
		&rep.ID, &rep.LotID, &rep.ReportDate, &rep.TotalRevenue, &rep.TotalReservations,
		&rep.OccupancyRate, &rep.AverageDuration, &rep.PeakHour, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot report: %w", err)
	}
	return rep, nil
}
