package models

import (
	"math"
	"time"
)

// LotStatus is the operational state of a parking lot.
type LotStatus string

const (
	LotActive      LotStatus = "active"
	LotMaintenance LotStatus = "maintenance"
	LotClosed      LotStatus = "closed"
)

// SpaceStatus is the state of an individual parking space.
type SpaceStatus string

const (
	SpaceAvailable   SpaceStatus = "available"
	SpaceOccupied    SpaceStatus = "occupied"
	SpaceReserved    SpaceStatus = "reserved"
	SpaceMaintenance SpaceStatus = "maintenance"
)

// ReservationStatus is the state of a reservation. Active is the only
// non-terminal state.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// CanTransitionTo reports whether the reservation state machine allows
// moving from s to next. Terminal states allow nothing.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s != ReservationActive {
		return false
	}
	switch next {
	case ReservationCompleted, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled || s == ReservationExpired
}

// PaymentStatus is the state of a payment.
// pending -> {completed, failed}; completed -> refunded.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted:
		return next == PaymentRefunded
	}
	return false
}

// TransactionType tags a points ledger entry.
type TransactionType string

const (
	TransactionEarn  TransactionType = "earn"
	TransactionSpend TransactionType = "spend"
)

// Role of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a user account.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         Role      `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile carries contact details for a user. It is created in the same
// transaction as the user row; there is no implicit hook doing it.
type Profile struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	PhoneNumber *string   `json:"phone_number" db:"phone_number"`
	Address     *string   `json:"address" db:"address"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Principal is the resolved identity attached to every core operation.
// The zero value is the anonymous principal.
type Principal struct {
	UserID  int64
	IsAdmin bool
}

// Authenticated reports whether the principal identifies a real user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// ParkingLot represents a parking facility. AvailableSpaces always equals
// the number of its spaces whose status is available; every space-status
// transition maintains the counter in the same transaction.
type ParkingLot struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Address         string    `json:"address" db:"address"`
	Latitude        float64   `json:"latitude" db:"latitude"`
	Longitude       float64   `json:"longitude" db:"longitude"`
	TotalSpaces     int       `json:"total_spaces" db:"total_spaces"`
	AvailableSpaces int       `json:"available_spaces" db:"available_spaces"`
	Status          LotStatus `json:"status" db:"status"`
	HourlyRate      float64   `json:"hourly_rate" db:"hourly_rate"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// OccupancyRate returns the percentage of consumed capacity.
func (l *ParkingLot) OccupancyRate() float64 {
	if l.TotalSpaces == 0 {
		return 0
	}
	return float64(l.TotalSpaces-l.AvailableSpaces) / float64(l.TotalSpaces) * 100
}

// ParkingSpace is one addressable slot within a lot. CurrentUserID is
// informational only, not an ownership edge.
type ParkingSpace struct {
	ID            int64       `json:"id" db:"id"`
	LotID         int64       `json:"lot_id" db:"lot_id"`
	SpaceNumber   string      `json:"space_number" db:"space_number"`
	Status        SpaceStatus `json:"status" db:"status"`
	CurrentUserID *int64      `json:"current_user_id" db:"current_user_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Reservation is a user's claim on a space for a half-open time interval
// [StartTime, EndTime).
type Reservation struct {
	ID           int64             `json:"id" db:"id"`
	LotID        int64             `json:"lot_id" db:"lot_id"`
	SpaceID      int64             `json:"space_id" db:"space_id"`
	UserID       int64             `json:"user_id" db:"user_id"`
	VehiclePlate string            `json:"vehicle_plate" db:"vehicle_plate"`
	Notes        string            `json:"notes" db:"notes"`
	StartTime    time.Time         `json:"start_time" db:"start_time"`
	EndTime      time.Time         `json:"end_time" db:"end_time"`
	Status       ReservationStatus `json:"status" db:"status"`
	RemindedAt   *time.Time        `json:"reminded_at,omitempty" db:"reminded_at"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`

	// HourlyRate is the lot's rate captured when the reservation is
	// loaded; used to derive the cost.
	HourlyRate float64 `json:"hourly_rate,omitempty" db:"-"`
}

// DurationHours returns the reservation length in hours.
func (r *Reservation) DurationHours() float64 {
	return r.EndTime.Sub(r.StartTime).Hours()
}

// TotalCost returns duration times the lot's hourly rate.
func (r *Reservation) TotalCost() float64 {
	return r.DurationHours() * r.HourlyRate
}

// PointsCost returns the cost in whole points, rounded up.
func (r *Reservation) PointsCost() int {
	return int(math.Ceil(r.TotalCost()))
}

// Overlaps implements the half-open interval conflict rule: two intervals
// conflict iff existing.start < new.end AND existing.end > new.start.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ParkPoints is a user's points balance. Balance is never negative and
// always equals the signed sum of the account's transactions.
type ParkPoints struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Balance   int       `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PointsTransaction is an append-only ledger entry. Rows are never mutated
// or deleted.
type PointsTransaction struct {
	ID              int64           `json:"id" db:"id"`
	PointsID        int64           `json:"points_id" db:"points_id"`
	Amount          int             `json:"amount" db:"amount"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Description     string          `json:"description" db:"description"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Payment records a points payment attempt for a reservation. A failed
// attempt is kept as an audit record rather than rolled back.
type Payment struct {
	ID            int64         `json:"id" db:"id"`
	ReservationID int64         `json:"reservation_id" db:"reservation_id"`
	PointsAmount  int           `json:"points_amount" db:"points_amount"`
	Status        PaymentStatus `json:"status" db:"status"`
	TransactionID *int64        `json:"transaction_id" db:"transaction_id"`
	ErrorMessage  *string       `json:"error_message" db:"error_message"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Notification is a persisted copy of a push notification.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	Data      []byte    `json:"data" db:"data"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DailyReport is a read-side rollup over one day of reservations.
type DailyReport struct {
	ID                int64     `json:"id" db:"id"`
	ReportDate        time.Time `json:"report_date" db:"report_date"`
	TotalRevenue      float64   `json:"total_revenue" db:"total_revenue"`
	TotalReservations int       `json:"total_reservations" db:"total_reservations"`
	AverageDuration   float64   `json:"average_duration" db:"average_duration"`
	PeakHour          *int      `json:"peak_hour" db:"peak_hour"`
	OccupancyRate     float64   `json:"occupancy_rate" db:"occupancy_rate"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// MonthlyReport is a read-side rollup over one calendar month.
type MonthlyReport struct {
	ID                   int64      `json:"id" db:"id"`
	Year                 int        `json:"year" db:"year"`
	Month                int        `json:"month" db:"month"`
	TotalRevenue         float64    `json:"total_revenue" db:"total_revenue"`
	TotalReservations    int        `json:"total_reservations" db:"total_reservations"`
	AverageDuration      float64    `json:"average_duration" db:"average_duration"`
	AverageOccupancyRate float64    `json:"average_occupancy_rate" db:"average_occupancy_rate"`
	PeakDay              *time.Time `json:"peak_day" db:"peak_day"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// ParkingLotReport is a per-lot daily rollup.
type ParkingLotReport struct {
	ID                int64     `json:"id" db:"id"`
	LotID             int64     `json:"lot_id" db:"lot_id"`
	ReportDate        time.Time `json:"report_date" db:"report_date"`
	TotalRevenue      float64   `json:"total_revenue" db:"total_revenue"`
	TotalReservations int       `json:"total_reservations" db:"total_reservations"`
	OccupancyRate     float64   `json:"occupancy_rate" db:"occupancy_rate"`
	AverageDuration   float64   `json:"average_duration" db:"average_duration"`
	PeakHour          *int      `json:"peak_hour" db:"peak_hour"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
