package repository

import (
	"context"
	"database/sql"
	"fmt"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"
)

type SpaceRepository struct {
	db *database.DB
}

func NewSpaceRepository(db *database.DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

const spaceColumns = `id, lot_id, space_number, status, current_user_id, created_at, updated_at`

func scanSpace(row interface{ Scan(...any) error }) (*models.ParkingSpace, error) {
	s := &models.ParkingSpace{}
	err := row.Scan(
		&s.ID,
		&s.LotID,
		&s.SpaceNumber,
		&s.Status,
		&s.CurrentUserID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// lockSpace loads a space row under an exclusive row lock. Callers mutate
// the space and the lot counter before the transaction commits.
func lockSpace(ctx context.Context, tx *sql.Tx, id int64) (*models.ParkingSpace, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM parking_spaces WHERE id = $1 FOR UPDATE`, id)
	space, err := scanSpace(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return space, err
}

// adjustLotAvailable shifts the lot's available counter, clamped to
// [0, total_spaces]. The UPDATE takes the lot row lock; space rows are
// always locked first so the lock order is consistent everywhere.
func adjustLotAvailable(ctx context.Context, tx *sql.Tx, lotID int64, delta int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE parking_lots
		SET available_spaces = LEAST(total_spaces, GREATEST(0, available_spaces + $1)),
		    updated_at = NOW()
		WHERE id = $2`, delta, lotID)
	if err != nil {
		return fmt.Errorf("failed to adjust lot availability: %w", err)
	}
	return nil
}

func updateSpace(ctx context.Context, tx *sql.Tx, id int64, status models.SpaceStatus, userID *int64) (*models.ParkingSpace, error) {
	row := tx.QueryRowContext(ctx, `
		UPDATE parking_spaces SET status = $1, current_user_id = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+spaceColumns, status, userID, id)
	return scanSpace(row)
}

func (r *SpaceRepository) GetByID(ctx context.Context, id int64) (*models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE id = $1`
	space, err := scanSpace(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return space, err
}

func (r *SpaceRepository) ListByLot(ctx context.Context, lotID int64, status string) ([]models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE lot_id = $1`
	args := []interface{}{lotID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY CAST(space_number AS INTEGER)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []models.ParkingSpace
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, *s)
	}
	return spaces, rows.Err()
}

// Reserve marks an available space as reserved for the user. The lot
// counter drops with the space leaving the available pool.
func (r *SpaceRepository) Reserve(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error) {
	var space *models.ParkingSpace
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := lockSpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if s.Status != models.SpaceAvailable {
			return fmt.Errorf("space is %s: %w", s.Status, apperrors.ErrInvalidState)
		}
		if space, err = updateSpace(ctx, tx, spaceID, models.SpaceReserved, &userID); err != nil {
			return err
		}
		return adjustLotAvailable(ctx, tx, s.LotID, -1)
	})
	return space, err
}

// Occupy marks a space as occupied. A reserved space already consumed lot
// capacity, so only occupation of an available space decrements the counter.
func (r *SpaceRepository) Occupy(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error) {
	var space *models.ParkingSpace
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := lockSpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if s.Status != models.SpaceAvailable && s.Status != models.SpaceReserved {
			return fmt.Errorf("space is %s: %w", s.Status, apperrors.ErrInvalidState)
		}
		wasAvailable := s.Status == models.SpaceAvailable
		if space, err = updateSpace(ctx, tx, spaceID, models.SpaceOccupied, &userID); err != nil {
			return err
		}
		if wasAvailable {
			return adjustLotAvailable(ctx, tx, s.LotID, -1)
		}
		return nil
	})
	return space, err
}

// Vacate returns an occupied space to the available pool.
func (r *SpaceRepository) Vacate(ctx context.Context, spaceID int64) (*models.ParkingSpace, error) {
	var space *models.ParkingSpace
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := lockSpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if s.Status != models.SpaceOccupied {
			return fmt.Errorf("space is %s: %w", s.Status, apperrors.ErrInvalidState)
		}
		if space, err = updateSpace(ctx, tx, spaceID, models.SpaceAvailable, nil); err != nil {
			return err
		}
		return adjustLotAvailable(ctx, tx, s.LotID, +1)
	})
	return space, err
}

// SetStatus is the admin override. It keeps the lot counter aligned with
// the space's membership in the available pool.
func (r *SpaceRepository) SetStatus(ctx context.Context, spaceID int64, status models.SpaceStatus) (*models.ParkingSpace, error) {
	var space *models.ParkingSpace
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := lockSpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if s.Status == status {
			space = s
			return nil
		}

		userID := s.CurrentUserID
		if status == models.SpaceAvailable {
			userID = nil
		}
		if space, err = updateSpace(ctx, tx, spaceID, status, userID); err != nil {
			return err
		}

		delta := 0
		if s.Status == models.SpaceAvailable {
			delta = -1
		}
		if status == models.SpaceAvailable {
			delta = +1
		}
		if delta != 0 {
			return adjustLotAvailable(ctx, tx, s.LotID, delta)
		}
		return nil
	})
	return space, err
}
