package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/infra/sqlite3"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id                   TEXT PRIMARY KEY,
		device_uuid          TEXT NOT NULL,
		merchant_id          TEXT NOT NULL,
		drink_number         TEXT NOT NULL DEFAULT '',
		drink_name           TEXT NOT NULL DEFAULT '',
		size                 INTEGER NOT NULL,
		price                INTEGER NOT NULL,
		status               TEXT NOT NULL,
		payment_reference_id TEXT,
		payment_started_at   TIMESTAMP,
		next_check_at        TIMESTAMP,
		last_check_at        TIMESTAMP,
		check_attempts       INTEGER NOT NULL DEFAULT 0,
		failure_reason       TEXT,
		status_check_type    TEXT NOT NULL DEFAULT 'polling',
		expires_at           TIMESTAMP NOT NULL,
		created_at           TIMESTAMP NOT NULL,
		updated_at           TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_background_check
		ON orders (status, status_check_type, next_check_at)`,
	`CREATE TABLE IF NOT EXISTS merchant_credentials (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		merchant_id       TEXT NOT NULL UNIQUE,
		shop_id           TEXT NOT NULL,
		secret_key        TEXT NOT NULL,
		status_check_type TEXT NOT NULL DEFAULT 'polling'
	)`,
}

// Migrate creates the schema when missing. Idempotent; the statements run
// in a single transaction.
func (s *storageImpl) Migrate(ctx context.Context) error {
	txm := sqlite3.WithTx(func() (*sql.DB, error) { return s.db.DB, nil }, nil)

	return txm(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema statement: %w", err)
			}
		}
		return nil
	})
}
