package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createRoomsTable,
		createAreasTable,
		createBookingsTable,
		createBookingsIndexes,
		createTransactionsTable,
		createNotificationsTable,
		createReviewsTable,
		createDeviceTokensTable,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(200) UNIQUE,
    username VARCHAR(150) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL DEFAULT '',
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    phone_number VARCHAR(20) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'guest',
    is_senior_or_pwd BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    last_booking_date DATE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (role IN ('guest', 'staff', 'admin'))
);`

const createRoomsTable = `
CREATE TABLE IF NOT EXISTS rooms (
    id SERIAL PRIMARY KEY,
    room_name VARCHAR(100) NOT NULL,
    room_type VARCHAR(20) NOT NULL DEFAULT 'premium',
    bed_type VARCHAR(20) NOT NULL DEFAULT 'single',
    status VARCHAR(20) NOT NULL DEFAULT 'available',
    room_price DECIMAL(10,2) NOT NULL DEFAULT 0,
    max_guests INTEGER NOT NULL DEFAULT 2,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('available', 'maintenance', 'occupied'))
);`

const createAreasTable = `
CREATE TABLE IF NOT EXISTS areas (
    id SERIAL PRIMARY KEY,
    area_name VARCHAR(100) UNIQUE NOT NULL,
    capacity INTEGER NOT NULL DEFAULT 0,
    price_per_hour DECIMAL(10,2) NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'available',
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('available', 'maintenance', 'occupied'))
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id),
    room_id INTEGER REFERENCES rooms(id),
    area_id INTEGER REFERENCES areas(id),
    is_venue_booking BOOLEAN NOT NULL DEFAULT FALSE,
    check_in_date DATE NOT NULL,
    check_out_date DATE NOT NULL,
    start_time TIME,
    end_time TIME,
    time_of_arrival TIME,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    total_price DECIMAL(10,2) NOT NULL DEFAULT 0,
    original_price DECIMAL(10,2) NOT NULL DEFAULT 0,
    discount_percent INTEGER NOT NULL DEFAULT 0,
    down_payment DECIMAL(10,2),
    payment_method VARCHAR(20) NOT NULL DEFAULT 'physical',
    payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
    payment_date TIMESTAMP,
    paymongo_source_id VARCHAR(100),
    paymongo_payment_id VARCHAR(100),
    is_discounted BOOLEAN NOT NULL DEFAULT FALSE,
    number_of_guests INTEGER NOT NULL DEFAULT 1,
    phone_number VARCHAR(20) NOT NULL DEFAULT '',
    special_request TEXT NOT NULL DEFAULT '',
    cancellation_reason TEXT,
    cancellation_date TIMESTAMP,
    has_food_order BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'reserved', 'confirmed', 'checked_in', 'checked_out', 'cancelled', 'rejected', 'no_show')),
    CHECK (payment_method IN ('physical', 'gateway')),
    CHECK (payment_status IN ('unpaid', 'pending', 'paid', 'failed')),
    CHECK ((is_venue_booking AND area_id IS NOT NULL AND room_id IS NULL)
        OR (NOT is_venue_booking AND room_id IS NOT NULL AND area_id IS NULL)),
    CHECK (check_out_date > check_in_date OR (is_venue_booking AND check_out_date = check_in_date))
);`

const createBookingsIndexes = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_paymongo_source_id_key
    ON bookings (paymongo_source_id) WHERE paymongo_source_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS bookings_room_dates_idx ON bookings (room_id, check_in_date, check_out_date);
CREATE INDEX IF NOT EXISTS bookings_area_dates_idx ON bookings (area_id, check_in_date, check_out_date);
CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_status_idx ON bookings (status);`

const createTransactionsTable = `
CREATE TABLE IF NOT EXISTS transactions (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL REFERENCES users(id),
    transaction_type VARCHAR(30) NOT NULL DEFAULT 'booking',
    amount DECIMAL(10,2) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    transaction_date TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (transaction_type IN ('booking', 'reservation', 'cancellation_refund')),
    CHECK (status IN ('completed', 'pending', 'failed'))
);
CREATE UNIQUE INDEX IF NOT EXISTS transactions_completed_once
    ON transactions (booking_id, transaction_type) WHERE status = 'completed';`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    booking_id INTEGER REFERENCES bookings(id) ON DELETE CASCADE,
    notification_type VARCHAR(30) NOT NULL,
    message TEXT NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);`

const createReviewsTable = `
CREATE TABLE IF NOT EXISTS reviews (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    room_id INTEGER REFERENCES rooms(id),
    area_id INTEGER REFERENCES areas(id),
    rating INTEGER NOT NULL,
    review_text TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE (booking_id, user_id),
    CHECK (rating BETWEEN 1 AND 5)
);`

const createDeviceTokensTable = `
CREATE TABLE IF NOT EXISTS device_tokens (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token VARCHAR(255) UNIQUE NOT NULL,
    platform VARCHAR(20) NOT NULL DEFAULT 'android',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`
