package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table the service needs.  booking_seats holds one
// row per seat of every non-cancelled booking; its unique key is what
// prevents two bookings from holding the same seat for the same showtime.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(100) NOT NULL DEFAULT '',
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    CHAR(36)     NOT NULL,
		token_hash CHAR(64)     NOT NULL,
		expires_at DATETIME     NOT NULL,
		revoked_at DATETIME     NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS cinemas (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		identifier VARCHAR(64)  NULL,
		name       VARCHAR(200) NOT NULL,
		address    VARCHAR(255) NOT NULL DEFAULT '',
		district   VARCHAR(100) NOT NULL DEFAULT '',
		city       VARCHAR(100) NOT NULL DEFAULT '',
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_cinemas_identifier (identifier),
		KEY idx_cinemas_city (city)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		title        VARCHAR(100) NOT NULL,
		description  TEXT         NOT NULL,
		duration     INT          NOT NULL,
		release_date DATETIME     NOT NULL,
		poster_url   VARCHAR(500) NOT NULL DEFAULT '',
		trailer_url  VARCHAR(500) NOT NULL DEFAULT '',
		genre        JSON         NOT NULL,
		director     VARCHAR(200) NOT NULL,
		cast_members JSON         NOT NULL,
		rating       DECIMAL(2,1) NOT NULL DEFAULT 0,
		is_showing   TINYINT(1)   NOT NULL DEFAULT 1,
		showtimes    JSON         NOT NULL,
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_movies_showing (is_showing, release_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		user_id        CHAR(36)      NOT NULL,
		movie_id       CHAR(36)      NOT NULL,
		cinema_id      CHAR(36)      NOT NULL,
		show_date      DATE          NOT NULL,
		show_time      VARCHAR(16)   NOT NULL,
		seats          JSON          NOT NULL,
		total_amount   DECIMAL(12,2) NOT NULL,
		booking_status VARCHAR(16)   NOT NULL DEFAULT 'active',
		payment_status VARCHAR(16)   NOT NULL DEFAULT 'pending',
		created_at     DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at     DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		KEY idx_bookings_user (user_id, created_at),
		KEY idx_bookings_show (movie_id, cinema_id, show_date, show_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_seats (
		booking_id CHAR(36)    NOT NULL,
		movie_id   CHAR(36)    NOT NULL,
		cinema_id  CHAR(36)    NOT NULL,
		show_date  DATE        NOT NULL,
		show_time  VARCHAR(16) NOT NULL,
		seat_code  VARCHAR(16) NOT NULL,
		position   INT         NOT NULL DEFAULT 0,
		UNIQUE KEY uq_booking_seat (movie_id, cinema_id, show_date, show_time, seat_code),
		KEY idx_booking_seats_booking (booking_id),
		CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables.  Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
