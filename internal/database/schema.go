package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the service needs. seats.id is supplied by the
// layout generator and equals the seat number.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          VARCHAR(32)     NOT NULL DEFAULT 'PASSENGER',
		is_active     BOOLEAN         NOT NULL DEFAULT TRUE,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		seat_number INT UNSIGNED    NOT NULL,
		row_num     INT UNSIGNED    NOT NULL,
		is_booked   BOOLEAN         NOT NULL DEFAULT FALSE,
		booked_by   BIGINT UNSIGNED NULL,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seats_number (seat_number),
		KEY idx_seats_row (row_num),
		KEY idx_seats_booked_by (booked_by),
		CONSTRAINT chk_seats_booking CHECK ((is_booked = FALSE AND booked_by IS NULL) OR (is_booked = TRUE AND booked_by IS NOT NULL))
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
