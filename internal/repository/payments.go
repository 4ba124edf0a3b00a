package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"

	"github.com/lib/pq"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, reservation_id, points_amount, status, transaction_id, error_message, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID,
		&p.ReservationID,
		&p.PointsAmount,
		&p.Status,
		&p.TransactionID,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PaymentRepository) GetByReservation(ctx context.Context, reservationID int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, reservationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// Create inserts a pending payment. The unique reservation constraint turns
// a duplicate attempt into ErrConflict.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	p.Status = models.PaymentPending
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (reservation_id, points_amount, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at, updated_at`,
		p.ReservationID, p.PointsAmount).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("reservation already has a payment: %w", apperrors.ErrConflict)
	}
	return err
}

// MarkFailed records a failed attempt. The row is deliberately retained as
// an audit record rather than rolled back.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'pending'`, message, id)
	return err
}

// CompleteWithDebit performs the settlement unit: debit the payer's ledger,
// link the resulting transaction, and complete the payment — all or nothing.
func (r *PaymentRepository) CompleteWithDebit(ctx context.Context, paymentID, userID int64, amount int, description string) (*models.Payment, error) {
	var payment *models.Payment
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		entry, err := debitTx(ctx, tx, userID, amount, description)
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE payments SET status = 'completed', transaction_id = $1, updated_at = NOW()
			WHERE id = $2 AND status = 'pending'
			RETURNING `+paymentColumns, entry.ID, paymentID)
		p, err := scanPayment(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("payment is not pending: %w", apperrors.ErrInvalidState)
		}
		if err != nil {
			return err
		}
		payment = p
		return nil
	})
	return payment, err
}

// RefundWithCredit reverses a completed payment: credit the ledger, mark the
// payment refunded, and cancel the reservation, restoring its space — one
// transaction.
func (r *PaymentRepository) RefundWithCredit(ctx context.Context, paymentID, userID int64, description string) (*models.Payment, error) {
	var payment *models.Payment
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
		p, err := scanPayment(row)
		if err == sql.ErrNoRows {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		if p.Status != models.PaymentCompleted {
			return fmt.Errorf("payment is %s: %w", p.Status, apperrors.ErrInvalidState)
		}

		if _, err := creditTx(ctx, tx, userID, p.PointsAmount, description); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE payments SET status = 'refunded', updated_at = NOW() WHERE id = $1`, p.ID); err != nil {
			return err
		}
		p.Status = models.PaymentRefunded

		// A reservation already moved to a terminal state keeps it; the
		// refund only cancels one that is still active.
		if _, err := finishTx(ctx, tx, p.ReservationID, models.ReservationCancelled, true); err != nil &&
			!errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			return err
		}

		payment = p
		return nil
	})
	return payment, err
}
