package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createProfilesTable,
		createParkingLotsTable,
		createParkingSpacesTable,
		createReservationsTable,
		createParkPointsTable,
		createPointsTransactionsTable,
		createPaymentsTable,
		createNotificationsTable,
		createDailyReportsTable,
		createMonthlyReportsTable,
		createParkingLotReportsTable,
		createReservationIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    username VARCHAR(150) UNIQUE NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    role VARCHAR(10) NOT NULL DEFAULT 'user',
    status VARCHAR(10) NOT NULL DEFAULT 'active',
    avatar_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (role IN ('user', 'admin')),
    CHECK (status IN ('active', 'inactive'))
);`

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    phone_number VARCHAR(15),
    address TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createParkingLotsTable = `
CREATE TABLE IF NOT EXISTS parking_lots (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    address TEXT NOT NULL,
    latitude DECIMAL(9,6) NOT NULL DEFAULT 0,
    longitude DECIMAL(9,6) NOT NULL DEFAULT 0,
    total_spaces INTEGER NOT NULL CHECK (total_spaces >= 0),
    available_spaces INTEGER NOT NULL CHECK (available_spaces >= 0),
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    hourly_rate DECIMAL(6,2) NOT NULL CHECK (hourly_rate > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (available_spaces <= total_spaces),
    CHECK (status IN ('active', 'maintenance', 'closed'))
);`

const createParkingSpacesTable = `
CREATE TABLE IF NOT EXISTS parking_spaces (
    id BIGSERIAL PRIMARY KEY,
    lot_id BIGINT NOT NULL REFERENCES parking_lots(id) ON DELETE CASCADE,
    space_number VARCHAR(10) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'available',
    current_user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(lot_id, space_number),
    CHECK (status IN ('available', 'occupied', 'reserved', 'maintenance'))
);`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id BIGSERIAL PRIMARY KEY,
    lot_id BIGINT NOT NULL REFERENCES parking_lots(id) ON DELETE CASCADE,
    space_id BIGINT NOT NULL REFERENCES parking_spaces(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    vehicle_plate VARCHAR(20) NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    reminded_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (end_time > start_time),
    CHECK (status IN ('active', 'completed', 'cancelled', 'expired'))
);`

const createParkPointsTable = `
CREATE TABLE IF NOT EXISTS park_points (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createPointsTransactionsTable = `
CREATE TABLE IF NOT EXISTS points_transactions (
    id BIGSERIAL PRIMARY KEY,
    points_id BIGINT NOT NULL REFERENCES park_points(id) ON DELETE CASCADE,
    amount INTEGER NOT NULL CHECK (amount > 0),
    transaction_type VARCHAR(10) NOT NULL,
    description VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (transaction_type IN ('earn', 'spend'))
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT UNIQUE NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
    points_amount INTEGER NOT NULL CHECK (points_amount >= 0),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    transaction_id BIGINT REFERENCES points_transactions(id) ON DELETE SET NULL,
    error_message VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'completed', 'failed', 'refunded'))
);`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type VARCHAR(50) NOT NULL DEFAULT 'custom',
    message TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}',
    status VARCHAR(10) NOT NULL DEFAULT 'unread',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('unread', 'read'))
);`

const createDailyReportsTable = `
CREATE TABLE IF NOT EXISTS daily_reports (
    id BIGSERIAL PRIMARY KEY,
    report_date DATE UNIQUE NOT NULL,
    total_revenue DECIMAL(10,2) NOT NULL DEFAULT 0,
    total_reservations INTEGER NOT NULL DEFAULT 0,
    average_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
    peak_hour SMALLINT,
    occupancy_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createMonthlyReportsTable = `
CREATE TABLE IF NOT EXISTS monthly_reports (
    id BIGSERIAL PRIMARY KEY,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    total_revenue DECIMAL(12,2) NOT NULL DEFAULT 0,
    total_reservations INTEGER NOT NULL DEFAULT 0,
    average_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
    average_occupancy_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    peak_day DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(year, month)
);`

const createParkingLotReportsTable = `
CREATE TABLE IF NOT EXISTS parking_lot_reports (
    id BIGSERIAL PRIMARY KEY,
    lot_id BIGINT NOT NULL REFERENCES parking_lots(id) ON DELETE CASCADE,
    report_date DATE NOT NULL,
    total_revenue DECIMAL(10,2) NOT NULL DEFAULT 0,
    total_reservations INTEGER NOT NULL DEFAULT 0,
    occupancy_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    average_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
    peak_hour SMALLINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(lot_id, report_date)
);`

const createReservationIndexes = `
CREATE INDEX IF NOT EXISTS reservations_space_active_idx
    ON reservations (space_id, start_time, end_time) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS reservations_user_idx ON reservations (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS notifications_user_status_idx ON notifications (user_id, status);
CREATE INDEX IF NOT EXISTS points_transactions_points_idx ON points_transactions (points_id, created_at DESC);`
