package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"
)

type LotRepository struct {
	db *database.DB
}

func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

const lotColumns = `id, name, address, latitude, longitude, total_spaces, available_spaces, status, hourly_rate, created_at, updated_at`

func scanLot(row interface{ Scan(...any) error }) (*models.ParkingLot, error) {
	lot := &models.ParkingLot{}
	err := row.Scan(
		&lot.ID,
		&lot.Name,
		&lot.Address,
		&lot.Latitude,
		&lot.Longitude,
		&lot.TotalSpaces,
		&lot.AvailableSpaces,
		&lot.Status,
		&lot.HourlyRate,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// Create inserts the lot and its initial batch of available spaces,
// numbered 1..TotalSpaces, in one transaction.
func (r *LotRepository) Create(ctx context.Context, lot *models.ParkingLot) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO parking_lots (name, address, latitude, longitude, total_spaces, available_spaces, status, hourly_rate)
			VALUES ($1, $2, $3, $4, $5, $5, $6, $7)
			RETURNING id, created_at, updated_at`

		if lot.Status == "" {
			lot.Status = models.LotActive
		}
		err := tx.QueryRowContext(ctx, query,
			lot.Name, lot.Address, lot.Latitude, lot.Longitude,
			lot.TotalSpaces, lot.Status, lot.HourlyRate,
		).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert lot: %w", err)
		}
		lot.AvailableSpaces = lot.TotalSpaces

		return insertSpaces(ctx, tx, lot.ID, 1, lot.TotalSpaces)
	})
}

func insertSpaces(ctx context.Context, tx *sql.Tx, lotID int64, from, to int) error {
	const query = `INSERT INTO parking_spaces (lot_id, space_number, status) VALUES ($1, $2, 'available')`
	for n := from; n <= to; n++ {
		if _, err := tx.ExecContext(ctx, query, lotID, strconv.Itoa(n)); err != nil {
			return fmt.Errorf("failed to insert space %d: %w", n, err)
		}
	}
	return nil
}

func (r *LotRepository) GetByID(ctx context.Context, id int64) (*models.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return lot, err
}

// List returns lots filtered by status and/or a name-or-address substring.
func (r *LotRepository) List(ctx context.Context, status, search string) ([]models.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE 1=1`
	var args []interface{}
	argIndex := 1

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}
	if search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR address ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+search+"%")
		argIndex++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []models.ParkingLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

// Update applies partial metadata changes. Capacity is changed only through
// Resize so the counters stay consistent.
func (r *LotRepository) Update(ctx context.Context, id int64, req *models.UpdateLotRequest) (*models.ParkingLot, error) {
	query := `UPDATE parking_lots SET
			name = COALESCE($1, name),
			address = COALESCE($2, address),
			status = COALESCE($3, status),
			hourly_rate = COALESCE($4, hourly_rate),
			updated_at = NOW()
		WHERE id = $5
		RETURNING ` + lotColumns

	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, req.Name, req.Address, status, req.HourlyRate, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return lot, err
}

// Resize grows the lot by appending newly numbered available spaces, or
// shrinks it by removing the highest-numbered ones. Shrinking fails with
// ErrConflict unless every space to remove is currently available.
func (r *LotRepository) Resize(ctx context.Context, id int64, newTotal int) (*models.ParkingLot, error) {
	var lot *models.ParkingLot
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = $1 FOR UPDATE`, id)
		l, err := scanLot(row)
		if err == sql.ErrNoRows {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		switch {
		case newTotal > l.TotalSpaces:
			if err := insertSpaces(ctx, tx, id, l.TotalSpaces+1, newTotal); err != nil {
				return err
			}
			added := newTotal - l.TotalSpaces
			l.AvailableSpaces += added

		case newTotal < l.TotalSpaces:
			removing := l.TotalSpaces - newTotal
			rows, err := tx.QueryContext(ctx, `
				SELECT id, status FROM parking_spaces
				WHERE lot_id = $1
				ORDER BY CAST(space_number AS INTEGER) DESC
				LIMIT $2
				FOR UPDATE`, id, removing)
			if err != nil {
				return err
			}
			var ids []int64
			for rows.Next() {
				var spaceID int64
				var status models.SpaceStatus
				if err := rows.Scan(&spaceID, &status); err != nil {
					rows.Close()
					return err
				}
				if status != models.SpaceAvailable {
					rows.Close()
					return fmt.Errorf("space %d is %s: %w", spaceID, status, apperrors.ErrConflict)
				}
				ids = append(ids, spaceID)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
			for _, spaceID := range ids {
				if _, err := tx.ExecContext(ctx, `DELETE FROM parking_spaces WHERE id = $1`, spaceID); err != nil {
					return err
				}
			}
			l.AvailableSpaces -= removing
		}

		l.TotalSpaces = newTotal
		err = tx.QueryRowContext(ctx, `
			UPDATE parking_lots SET total_spaces = $1, available_spaces = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING `+lotColumns, newTotal, l.AvailableSpaces, id).Scan(
			&l.ID, &l.Name, &l.Address, &l.Latitude, &l.Longitude,
			&l.TotalSpaces, &l.AvailableSpaces, &l.Status, &l.HourlyRate,
			&l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return err
		}
		lot = l
		return nil
	})
	return lot, err
}

// Delete removes a lot. Lots referenced by active reservations are never
// hard-deleted.
func (r *LotRepository) Delete(ctx context.Context, id int64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM reservations WHERE lot_id = $1 AND status = 'active')`, id).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("lot has active reservations: %w", apperrors.ErrConflict)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
