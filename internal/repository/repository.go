package repository

import (
	"parkhub/internal/database"
)

type Repositories struct {
	Users         *UserRepository
	Lots          *LotRepository
	Spaces        *SpaceRepository
	Reservations  *ReservationRepository
	Points        *PointsRepository
	Payments      *PaymentRepository
	Notifications *NotificationRepository
	Reports       *ReportRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Lots:          NewLotRepository(db),
		Spaces:        NewSpaceRepository(db),
		Reservations:  NewReservationRepository(db),
		Points:        NewPointsRepository(db),
		Payments:      NewPaymentRepository(db),
		Notifications: NewNotificationRepository(db),
		Reports:       NewReportRepository(db),
	}
}
