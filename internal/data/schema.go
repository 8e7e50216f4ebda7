package data

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id             bigserial PRIMARY KEY,
		title          text NOT NULL CHECK (title <> ''),
		author         text NOT NULL CHECK (author <> ''),
		genre          text,
		year_published integer,
		summary        text
	)`,
	`CREATE INDEX IF NOT EXISTS books_title_idx ON books (title)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          bigserial PRIMARY KEY,
		book_id     bigint NOT NULL REFERENCES books (id) ON DELETE CASCADE,
		user_id     bigint NOT NULL,
		review_text text,
		rating      integer NOT NULL CONSTRAINT reviews_rating_check CHECK (rating >= 1 AND rating <= 5)
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_book_id_idx ON reviews (book_id)`,
}

// AUTOINCREMENT keeps SQLite from reusing the ids of deleted rows.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		title          TEXT NOT NULL CHECK (title <> ''),
		author         TEXT NOT NULL CHECK (author <> ''),
		genre          TEXT,
		year_published INTEGER,
		summary        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS books_title_idx ON books (title)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id     INTEGER NOT NULL REFERENCES books (id) ON DELETE CASCADE,
		user_id     INTEGER NOT NULL,
		review_text TEXT,
		rating      INTEGER NOT NULL CONSTRAINT reviews_rating_check CHECK (rating >= 1 AND rating <= 5)
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_book_id_idx ON reviews (book_id)`,
}

// Migrate creates the books and reviews tables if they do not exist yet.
// SQLite connections must enforce foreign keys for the cascade to apply;
// the server's openDB adds "_foreign_keys=on" to every SQLite DSN.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverPostgres:
		stmts = postgresSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}

	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, classify(err))
		}
	}
	return nil
}
