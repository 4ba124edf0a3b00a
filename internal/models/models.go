package models

import "time"

// RegisterRequest - request body for user registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest - request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse - access token issued on successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// CreateLotRequest - admin request to create a lot with its spaces
type CreateLotRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     string  `json:"address" binding:"required"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TotalSpaces int     `json:"total_spaces" binding:"required,min=1"`
	HourlyRate  float64 `json:"hourly_rate" binding:"required,gt=0"`
}

// ResizeLotRequest - admin request to grow or shrink a lot
type ResizeLotRequest struct {
	TotalSpaces int `json:"total_spaces" binding:"required,min=0"`
}

// UpdateLotRequest - admin request to update lot metadata
type UpdateLotRequest struct {
	Name       *string    `json:"name"`
	Address    *string    `json:"address"`
	Status     *LotStatus `json:"status"`
	HourlyRate *float64   `json:"hourly_rate"`
}

// OccupancyResponse - occupancy summary of a lot
type OccupancyResponse struct {
	OccupancyRate   float64 `json:"occupancy_rate"`
	TotalSpaces     int     `json:"total_spaces"`
	AvailableSpaces int     `json:"available_spaces"`
	OccupiedSpaces  int     `json:"occupied_spaces"`
}

// CreateReservationRequest - request body for creating a reservation
type CreateReservationRequest struct {
	LotID        int64     `json:"lot_id" binding:"required"`
	SpaceID      int64     `json:"space_id" binding:"required"`
	VehiclePlate string    `json:"vehicle_plate" binding:"required"`
	Notes        string    `json:"notes"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	// UserID may only be set by admins creating reservations on behalf
	// of another user.
	UserID *int64 `json:"user_id"`
}

// CreatePaymentRequest - request body for paying a reservation with points
type CreatePaymentRequest struct {
	ReservationID int64 `json:"reservation_id" binding:"required"`
}

// PointsBalanceResponse - a user's current balance
type PointsBalanceResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int   `json:"balance"`
}

// TransactionHistoryResponse - paginated ledger history
type TransactionHistoryResponse struct {
	Transactions []PointsTransaction `json:"transactions"`
	TotalItems   int                 `json:"total_items"`
	TotalPages   int                 `json:"total_pages"`
}

// TopUpRequest - admin request to grant points to a user
type TopUpRequest struct {
	UserID      int64  `json:"user_id" binding:"required"`
	Amount      int    `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}
