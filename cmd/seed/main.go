package main

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/logger"
	"parkhub/internal/models"
	"parkhub/internal/repository"
)

// Seeds a development database with an admin, a regular user and two lots.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err.Error())
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repos := repository.NewRepositories(db)

	seedUser(ctx, repos, "admin@parkhub.local", "admin", "admin12345", models.RoleAdmin)
	userID := seedUser(ctx, repos, "driver@parkhub.local", "driver", "driver12345", models.RoleUser)

	if userID != 0 {
		if _, err := repos.Points.Credit(ctx, userID, 500, "Seed balance"); err != nil {
			logger.Get().Error("Failed to seed points", "error", err.Error())
		}
	}

	seedLot(ctx, repos, &models.ParkingLot{
		Name:            "Central Garage",
		Address:         "1 Main Street",
		Latitude:        51.5074,
		Longitude:       -0.1278,
		TotalSpaces:     40,
		AvailableSpaces: 40,
		Status:          models.LotActive,
		HourlyRate:      3.50,
	})
	seedLot(ctx, repos, &models.ParkingLot{
		Name:            "Riverside Lot",
		Address:         "22 Quay Road",
		Latitude:        51.5033,
		Longitude:       -0.1196,
		TotalSpaces:     15,
		AvailableSpaces: 15,
		Status:          models.LotActive,
		HourlyRate:      2.00,
	})

	logger.Get().Info("Seeding complete")
}

func seedUser(ctx context.Context, repos *repository.Repositories, email, username, password string, role models.Role) int64 {
	existing, err := repos.Users.GetByEmail(ctx, email)
	if err != nil {
		logger.Fatal("Failed to check user", "email", email, "error", err.Error())
	}
	if existing != nil {
		logger.Get().Info("User already exists, skipping", "email", email)
		return existing.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Failed to hash password", "error", err.Error())
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := repos.Users.Create(ctx, user, &models.Profile{}); err != nil {
		logger.Fatal("Failed to seed user", "email", email, "error", err.Error())
	}

	logger.Get().Info("Seeded user", "email", email, "role", role)
	return user.ID
}

func seedLot(ctx context.Context, repos *repository.Repositories, lot *models.ParkingLot) {
	existing, err := repos.Lots.List(ctx, "", lot.Name)
	if err != nil {
		logger.Fatal("Failed to check lots", "error", err.Error())
	}
	if len(existing) > 0 {
		logger.Get().Info("Lot already exists, skipping", "name", lot.Name)
		return
	}

	if err := repos.Lots.Create(ctx, lot); err != nil {
		logger.Fatal("Failed to seed lot", "name", lot.Name, "error", err.Error())
	}
	logger.Get().Info("Seeded lot", "name", lot.Name, "spaces", lot.TotalSpaces)
}
