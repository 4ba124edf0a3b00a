package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkhub/internal/apperrors"
	"parkhub/internal/middleware"
	"parkhub/internal/models"
)

// userStore is an in-memory UserStore. Create applies the column defaults
// the schema would.
type userStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	profiles map[int64]*models.Profile
	nextID   int64
}

func newUserStore() *userStore {
	return &userStore{
		users:    make(map[int64]*models.User),
		profiles: make(map[int64]*models.Profile),
	}
}

func (s *userStore) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("email or username already taken: %w", apperrors.ErrConflict)
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.Status = "active"
	s.users[user.ID] = user

	profile.UserID = user.ID
	s.profiles[user.ID] = profile
	return nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *userStore) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (s *userStore) UpdateProfile(ctx context.Context, userID int64, phoneNumber, address *string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if phoneNumber != nil {
		profile.PhoneNumber = phoneNumber
	}
	if address != nil {
		profile.Address = address
	}
	copied := *profile
	return &copied, nil
}

// voidedTokens records blacklisted token ids.
type voidedTokens struct {
	ids []string
}

func (v *voidedTokens) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	v.ids = append(v.ids, tokenID)
	return nil
}

func newAuthFixture() (*AuthService, *userStore, *memStore, *voidedTokens) {
	users := newUserStore()
	store := newMemStore()
	tokens := &voidedTokens{}
	svc := NewAuthService(users, pointsStore{store}, "test-secret", time.Hour, tokens)
	return svc, users, store, tokens
}

func registerReq() *models.RegisterRequest {
	return &models.RegisterRequest{
		Email:    "driver@example.com",
		Username: "driver",
		Password: "password123",
	}
}

func TestRegister(t *testing.T) {
	svc, users, store, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	// The profile row exists and the welcome bonus landed.
	profile, err := users.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, WelcomeBonus, store.balances[user.ID])

	// Duplicate email is a conflict.
	_, err = svc.Register(context.Background(), registerReq())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "driver@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := middleware.ParseToken("test-secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, users, _, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	// Unknown email and wrong password produce the same error.
	_, err = svc.Login(context.Background(), &models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Login(context.Background(), &models.LoginRequest{Email: "driver@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Suspended accounts cannot log in.
	users.users[user.ID].Status = "suspended"
	_, err = svc.Login(context.Background(), &models.LoginRequest{Email: "driver@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	svc, _, _, tokens := newAuthFixture()

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "driver@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), resp.Token))
	require.Len(t, tokens.ids, 1)

	claims, err := middleware.ParseToken("test-secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, tokens.ids[0])

	assert.ErrorIs(t, svc.Logout(context.Background(), "garbage"), apperrors.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	phone := "+44 20 7946 0958"
	profile, err := svc.UpdateProfile(context.Background(), models.Principal{UserID: user.ID}, &phone, nil)
	require.NoError(t, err)
	require.NotNil(t, profile.PhoneNumber)
	assert.Equal(t, phone, *profile.PhoneNumber)
	assert.Nil(t, profile.Address)
}
