package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"parkhub/internal/apperrors"
	"parkhub/internal/database"
	"parkhub/internal/models"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, role, status, avatar_url, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Role, &u.Status, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and its profile row in one transaction. The
// profile is an explicit step of registration, never a side effect.
func (r *UserRepository) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, username, password_hash, first_name, last_name, role)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, status, avatar_url, created_at, updated_at`,
			user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Role).Scan(
			&user.ID, &user.Status, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("email or username already taken: %w", apperrors.ErrConflict)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		profile.UserID = user.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO profiles (user_id, phone_number, address)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`,
			profile.UserID, profile.PhoneNumber, profile.Address).Scan(
			&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
}

// GetByEmail returns (nil, nil) when no such user exists so the caller can
// turn the miss into a credentials error without leaking which part failed.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, phone_number, address, created_at, updated_at
		FROM profiles WHERE user_id = $1`, userID).Scan(
		&p.ID, &p.UserID, &p.PhoneNumber, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, phoneNumber, address *string) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, `
		UPDATE profiles SET
			phone_number = COALESCE($2, phone_number),
			address = COALESCE($3, address),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING id, user_id, phone_number, address, created_at, updated_at`,
		userID, phoneNumber, address).Scan(
		&p.ID, &p.UserID, &p.PhoneNumber, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}
