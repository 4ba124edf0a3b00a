package repository

import (
	"context"
	"database/sql"
	"fmt"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"
)

type PointsRepository struct {
	db *database.DB
}

func NewPointsRepository(db *database.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// GetOrCreate returns the user's points account, creating it with a zero
// balance on first touch. Idempotent.
func (r *PointsRepository) GetOrCreate(ctx context.Context, userID int64) (*models.ParkPoints, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO park_points (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure points account: %w", err)
	}

	acct := &models.ParkPoints{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM park_points WHERE user_id = $1`, userID).Scan(
		&acct.ID, &acct.UserID, &acct.Balance, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// lockAccount loads the points account under an exclusive row lock,
// creating it first if absent. Every balance mutation goes through this so
// concurrent debits serialize on the account row.
func lockAccount(ctx context.Context, tx *sql.Tx, userID int64) (*models.ParkPoints, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO park_points (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, err
	}

	acct := &models.ParkPoints{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM park_points WHERE user_id = $1 FOR UPDATE`, userID).Scan(
		&acct.ID, &acct.UserID, &acct.Balance, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// debitTx decrements the balance and appends the spend entry in the caller's
// transaction, so the two effects commit or roll back together.
func debitTx(ctx context.Context, tx *sql.Tx, userID int64, amount int, description string) (*models.PointsTransaction, error) {
	acct, err := lockAccount(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if acct.Balance < amount {
		return nil, fmt.Errorf("balance %d < %d: %w", acct.Balance, amount, apperrors.ErrInsufficientBalance)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE park_points SET balance = balance - $1, updated_at = NOW() WHERE id = $2`,
		amount, acct.ID); err != nil {
		return nil, err
	}
	return insertTransaction(ctx, tx, acct.ID, amount, models.TransactionSpend, description)
}

// creditTx increments the balance and appends the earn entry. No upper bound.
func creditTx(ctx context.Context, tx *sql.Tx, userID int64, amount int, description string) (*models.PointsTransaction, error) {
	acct, err := lockAccount(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE park_points SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		amount, acct.ID); err != nil {
		return nil, err
	}
	return insertTransaction(ctx, tx, acct.ID, amount, models.TransactionEarn, description)
}

func insertTransaction(ctx context.Context, tx *sql.Tx, pointsID int64, amount int, typ models.TransactionType, description string) (*models.PointsTransaction, error) {
	entry := &models.PointsTransaction{
		PointsID:        pointsID,
		Amount:          amount,
		TransactionType: typ,
		Description:     description,
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO points_transactions (points_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		pointsID, amount, typ, description).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return entry, nil
}

// Debit atomically removes points from the user's balance and appends the
// matching ledger entry. Fails with ErrInsufficientBalance before any effect.
func (r *PointsRepository) Debit(ctx context.Context, userID int64, amount int, description string) (*models.PointsTransaction, error) {
	var entry *models.PointsTransaction
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = debitTx(ctx, tx, userID, amount, description)
		return err
	})
	return entry, err
}

// Credit atomically adds points and appends the matching ledger entry.
func (r *PointsRepository) Credit(ctx context.Context, userID int64, amount int, description string) (*models.PointsTransaction, error) {
	var entry *models.PointsTransaction
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = creditTx(ctx, tx, userID, amount, description)
		return err
	})
	return entry, err
}

// History returns the user's ledger entries newest first, with the total
// count for pagination.
func (r *PointsRepository) History(ctx context.Context, userID int64, page, pageSize int) ([]models.PointsTransaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM points_transactions t
		JOIN park_points p ON p.id = t.points_id
		WHERE p.user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.points_id, t.amount, t.transaction_type, t.description, t.created_at
		FROM points_transactions t
		JOIN park_points p ON p.id = t.points_id
		WHERE p.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []models.PointsTransaction
	for rows.Next() {
		var e models.PointsTransaction
		if err := rows.Scan(&e.ID, &e.PointsID, &e.Amount, &e.TransactionType, &e.Description, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
