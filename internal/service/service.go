package service

import (
	"context"
	"time"

	"parkhub/internal/config"
	"parkhub/internal/models"
	"parkhub/internal/repository"
)

// Store interfaces are defined here, where they are consumed. The SQL
// repositories satisfy them in production; tests substitute in-memory
// fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User, profile *models.Profile) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, phoneNumber, address *string) (*models.Profile, error)
}

type LotStore interface {
	Create(ctx context.Context, lot *models.ParkingLot) error
	GetByID(ctx context.Context, id int64) (*models.ParkingLot, error)
	List(ctx context.Context, status, search string) ([]models.ParkingLot, error)
	Update(ctx context.Context, id int64, req *models.UpdateLotRequest) (*models.ParkingLot, error)
	Resize(ctx context.Context, id int64, newTotal int) (*models.ParkingLot, error)
	Delete(ctx context.Context, id int64) error
}

type SpaceStore interface {
	GetByID(ctx context.Context, id int64) (*models.ParkingSpace, error)
	ListByLot(ctx context.Context, lotID int64, status string) ([]models.ParkingSpace, error)
	Reserve(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error)
	Occupy(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error)
	Vacate(ctx context.Context, spaceID int64) (*models.ParkingSpace, error)
	SetStatus(ctx context.Context, spaceID int64, status models.SpaceStatus) (*models.ParkingSpace, error)
}

type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	ListByUser(ctx context.Context, userID int64, status string) ([]models.Reservation, error)
	Finish(ctx context.Context, id int64, to models.ReservationStatus, restore bool) (*models.Reservation, error)
	ListActiveEndedBefore(ctx context.Context, t time.Time) ([]models.Reservation, error)
	ListActiveStartingBetween(ctx context.Context, from, to time.Time) ([]models.Reservation, error)
	MarkReminded(ctx context.Context, id int64, at time.Time) error
	ListStartedBetween(ctx context.Context, from, to time.Time, lotID *int64) ([]models.Reservation, error)
}

type PointsStore interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.ParkPoints, error)
	Credit(ctx context.Context, userID int64, amount int, description string) (*models.PointsTransaction, error)
	History(ctx context.Context, userID int64, page, pageSize int) ([]models.PointsTransaction, int, error)
}

type PaymentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByReservation(ctx context.Context, reservationID int64) (*models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error
	MarkFailed(ctx context.Context, id int64, message string) error
	CompleteWithDebit(ctx context.Context, paymentID, userID int64, amount int, description string) (*models.Payment, error)
	RefundWithCredit(ctx context.Context, paymentID, userID int64, description string) (*models.Payment, error)
}

type NotificationStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type ReportStore interface {
	UpsertDaily(ctx context.Context, rep *models.DailyReport) error
	GetDaily(ctx context.Context, date time.Time) (*models.DailyReport, error)
	ListDaily(ctx context.Context, from, to time.Time) ([]models.DailyReport, error)
	UpsertMonthly(ctx context.Context, rep *models.MonthlyReport) error
	GetMonthly(ctx context.Context, year, month int) (*models.MonthlyReport, error)
	UpsertLot(ctx context.Context, rep *models.ParkingLotReport) error
	GetLot(ctx context.Context, lotID int64, date time.Time) (*models.ParkingLotReport, error)
}

// Notifier pushes an event to a user's notification channels. Delivery is
// best effort and always happens after the owning transaction commits.
type Notifier interface {
	Notify(ctx context.Context, userID *int64, event models.Event)
}

// Publisher publishes domain events to the message bus.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// Searcher maintains and queries the lot search index.
type Searcher interface {
	IndexLot(ctx context.Context, lot *models.ParkingLot) error
	DeleteLot(ctx context.Context, id int64) error
	SearchLots(ctx context.Context, query, status string, size int) ([]int64, error)
}

// LotCache caches lot listings.
type LotCache interface {
	GetLotList(ctx context.Context, key string) ([]models.ParkingLot, error)
	SetLotList(ctx context.Context, key string, lots []models.ParkingLot) error
	InvalidateLotLists(ctx context.Context) error
}

// TokenVoider voids issued tokens on logout.
type TokenVoider interface {
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

// Services aggregates all business services.
type Services struct {
	Auth          *AuthService
	Inventory     *InventoryService
	Reservations  *ReservationService
	Points        *PointsService
	Payments      *PaymentService
	Notifications *NotificationService
	Reports       *ReportService
}

// Deps carries the side-effect dependencies. Any of them may be nil; the
// services degrade to skipping the side effect.
type Deps struct {
	Notifier  Notifier
	Publisher Publisher
	Searcher  Searcher
	LotCache  LotCache
	Tokens    TokenVoider
}

func NewServices(cfg *config.Config, repos *repository.Repositories, deps Deps) *Services {
	reservations := NewReservationService(
		repos.Reservations, repos.Lots, repos.Spaces,
		deps.Notifier, deps.Publisher,
		time.Duration(cfg.MaxReservationHours)*time.Hour)

	return &Services{
		Auth:          NewAuthService(repos.Users, repos.Points, cfg.JWTSecret, cfg.JWTExpiration, deps.Tokens),
		Inventory:     NewInventoryService(repos.Lots, repos.Spaces, deps.Searcher, deps.LotCache),
		Reservations:  reservations,
		Points:        NewPointsService(repos.Points, deps.Notifier),
		Payments:      NewPaymentService(repos.Payments, repos.Reservations, deps.Notifier, deps.Publisher),
		Notifications: NewNotificationService(repos.Notifications),
		Reports:       NewReportService(repos.Reports, repos.Reservations, repos.Lots),
	}
}
