package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"parkhub/internal/apperrors"
	"parkhub/internal/logger"
	"parkhub/internal/middleware"
	"parkhub/internal/models"
)

// WelcomeBonus is credited to every new account so users can try a paid
// reservation without a manual top-up.
const WelcomeBonus = 100

type AuthService struct {
	users     UserStore
	points    PointsStore
	jwtSecret string
	jwtTTL    time.Duration
	tokens    TokenVoider
}

func NewAuthService(users UserStore, points PointsStore, jwtSecret string, jwtTTL time.Duration, tokens TokenVoider) *AuthService {
	return &AuthService{
		users:     users,
		points:    points,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		tokens:    tokens,
	}
}

// Register creates the user, their profile and their points account. The
// profile row is an explicit step, created in the same transaction as the
// user.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
	}
	profile := &models.Profile{}

	if err := s.users.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	if _, err := s.points.Credit(ctx, user.ID, WelcomeBonus, "Welcome bonus"); err != nil {
		// The account itself is fine; the bonus can be granted later.
		logger.WithContext(ctx).Error("Failed to credit welcome bonus",
			"user_id", user.ID,
			"error", err.Error())
	}

	logger.WithContext(ctx).Info("User registered",
		"user_id", user.ID,
		"email", user.Email)
	return user, nil
}

// Login verifies credentials and issues an access token. A missing user and
// a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.Status != "active" {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}

	token, claims, err := middleware.GenerateToken(s.jwtSecret, s.jwtTTL, user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// Logout voids the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	claims, err := middleware.ParseToken(s.jwtSecret, rawToken)
	if err != nil {
		return fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}
	if s.tokens == nil {
		return nil
	}
	return s.tokens.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Me returns the authenticated user's account and profile.
func (s *AuthService) Me(ctx context.Context, principal models.Principal) (*models.User, *models.Profile, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperrors.ErrNotFound
	}
	profile, err := s.users.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// UpdateProfile changes the authenticated user's contact details.
func (s *AuthService) UpdateProfile(ctx context.Context, principal models.Principal, phoneNumber, address *string) (*models.Profile, error) {
	return s.users.UpdateProfile(ctx, principal.UserID, phoneNumber, address)
}
