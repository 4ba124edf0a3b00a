package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"
)

type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `r.id, r.lot_id, r.space_id, r.user_id, r.vehicle_plate, r.notes,
	r.start_time, r.end_time, r.status, r.reminded_at, r.created_at, r.updated_at, l.hourly_rate`

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := row.Scan(
		&r.ID,
		&r.LotID,
		&r.SpaceID,
		&r.UserID,
		&r.VehiclePlate,
		&r.Notes,
		&r.StartTime,
		&r.EndTime,
		&r.Status,
		&r.RemindedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.HourlyRate,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create commits the four effects of a new reservation atomically: the
// overlap check and insert happen under the space's row lock so two
// concurrent requests for the same space cannot both pass the check.
func (repo *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return repo.db.InTx(ctx, func(tx *sql.Tx) error {
		space, err := lockSpace(ctx, tx, res.SpaceID)
		if err != nil {
			return err
		}
		if space.LotID != res.LotID {
			return fmt.Errorf("space %d does not belong to lot %d: %w", res.SpaceID, res.LotID, apperrors.ErrNotFound)
		}
		if space.Status == models.SpaceMaintenance {
			return fmt.Errorf("space %d is under maintenance: %w", res.SpaceID, apperrors.ErrInvalidState)
		}

		// Half-open interval overlap: [start, end).
		var overlapping bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM reservations
				WHERE space_id = $1 AND status = 'active'
				  AND start_time < $3 AND end_time > $2
			)`, res.SpaceID, res.StartTime, res.EndTime).Scan(&overlapping)
		if err != nil {
			return err
		}
		if overlapping {
			return apperrors.ErrSlotConflict
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO reservations (lot_id, space_id, user_id, vehicle_plate, notes, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
			RETURNING id, created_at, updated_at`,
			res.LotID, res.SpaceID, res.UserID, res.VehiclePlate, res.Notes,
			res.StartTime, res.EndTime,
		).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		res.Status = models.ReservationActive

		if _, err := updateSpace(ctx, tx, res.SpaceID, models.SpaceReserved, &res.UserID); err != nil {
			return err
		}

		// An available space leaving the pool consumes capacity once;
		// reserving a space in any other state must not touch the counter.
		if space.Status == models.SpaceAvailable {
			if err := adjustLotAvailable(ctx, tx, res.LotID, -1); err != nil {
				return err
			}
		}

		if err := tx.QueryRowContext(ctx, `SELECT hourly_rate FROM parking_lots WHERE id = $1`, res.LotID).Scan(&res.HourlyRate); err != nil {
			return err
		}
		return nil
	})
}

func (repo *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations r JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.id = $1`
	res, err := scanReservation(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (repo *ReservationRepository) listQuery(ctx context.Context, query string, args ...interface{}) ([]models.Reservation, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func (repo *ReservationRepository) ListByUser(ctx context.Context, userID int64, status string) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations r JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND r.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC`
	return repo.listQuery(ctx, query, args...)
}

// Finish moves an active reservation to a terminal status. When restore is
// set, the space returns to the available pool and the lot counter grows
// back, all inside the same transaction.
func (repo *ReservationRepository) Finish(ctx context.Context, id int64, to models.ReservationStatus, restore bool) (*models.Reservation, error) {
	var updated *models.Reservation
	err := repo.db.InTx(ctx, func(tx *sql.Tx) error {
		res, err := finishTx(ctx, tx, id, to, restore)
		if err != nil {
			return err
		}
		updated = res
		return nil
	})
	return updated, err
}

// finishTx is the transaction body of Finish, shared with the payment
// refund path.
func finishTx(ctx context.Context, tx *sql.Tx, id int64, to models.ReservationStatus, restore bool) (*models.Reservation, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.id = $1
		FOR UPDATE OF r`, id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !res.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, apperrors.ErrInvalidTransition)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2`, to, id); err != nil {
		return nil, err
	}
	res.Status = to

	if restore {
		space, err := lockSpace(ctx, tx, res.SpaceID)
		if err != nil {
			return nil, err
		}
		if space.Status != models.SpaceAvailable {
			if _, err := updateSpace(ctx, tx, res.SpaceID, models.SpaceAvailable, nil); err != nil {
				return nil, err
			}
			if err := adjustLotAvailable(ctx, tx, res.LotID, +1); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// ListActiveEndedBefore returns expiry-sweep candidates. Already-expired
// rows are excluded by the status filter, which makes the sweep idempotent.
func (repo *ReservationRepository) ListActiveEndedBefore(ctx context.Context, t time.Time) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations r JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.status = 'active' AND r.end_time < $1
		ORDER BY r.end_time ASC`
	return repo.listQuery(ctx, query, t)
}

// ListActiveStartingBetween returns reminder candidates in (from, to] that
// have not been reminded yet.
func (repo *ReservationRepository) ListActiveStartingBetween(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations r JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.status = 'active' AND r.start_time > $1 AND r.start_time <= $2
		  AND r.reminded_at IS NULL
		ORDER BY r.start_time ASC`
	return repo.listQuery(ctx, query, from, to)
}

func (repo *ReservationRepository) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE reservations SET reminded_at = $1, updated_at = NOW() WHERE id = $2`, at, id)
	return err
}

// ListStartedBetween returns reservations whose start time falls in the
// period, joined with the lot rate. Used by report generation; terminal
// cancelled/expired rows are excluded from revenue.
func (repo *ReservationRepository) ListStartedBetween(ctx context.Context, from, to time.Time, lotID *int64) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations r JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.start_time >= $1 AND r.start_time < $2
		  AND r.status IN ('active', 'completed')`
	args := []interface{}{from, to}
	if lotID != nil {
		query += ` AND r.lot_id = $3`
		args = append(args, *lotID)
	}
	query += ` ORDER BY r.start_time ASC`
	return repo.listQuery(ctx, query, args...)
}
