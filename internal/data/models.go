// internal/data/models.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aoideee/bookreviews/internal/validator"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Pagination defaults for list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	// ErrRecordNotFound is returned when a query finds no matching row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNoReviews is returned when a summary is requested for a book that
	// exists but has no reviews yet. It matches ErrRecordNotFound.
	ErrNoReviews = fmt.Errorf("%w: book has no reviews", ErrRecordNotFound)

	// ErrConstraintViolation is returned when the store rejects a write
	// because it breaks a check, not-null or foreign key constraint.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStoreUnavailable is returned for transient infrastructure failures.
	// Every operation is atomic, so the caller may retry it as a whole.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the model types, so the
// same model code runs inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Models is a top-level container that groups all database model types together.
// It is passed around the application so every layer has access to the
// database without importing sql directly.
type Models struct {
	Books   BookModel   // Handles all database operations for the books table
	Reviews ReviewModel // Handles all database operations for the reviews table

	pool    *sql.DB
	dialect dialect
}

// NewModels constructs a Models value wired up to the given database connection
// pool. driver selects the SQL dialect and must be DriverPostgres or DriverSQLite.
func NewModels(db *sql.DB, driver string) Models {
	d := dialect(driver)
	return Models{
		Books:   BookModel{DB: db, dialect: d},
		Reviews: ReviewModel{DB: db, dialect: d},
		pool:    db,
		dialect: d,
	}
}

// bind returns a copy of m whose model types run their queries on q.
func (m Models) bind(q DBTX) Models {
	m.Books = BookModel{DB: q, dialect: m.dialect}
	m.Reviews = ReviewModel{DB: q, dialect: m.dialect}
	return m
}

// Tx runs fn inside a single read-write transaction. The transaction is
// committed if fn returns nil and rolled back otherwise.
func (m Models) Tx(ctx context.Context, fn func(tx Models) error) error {
	return m.runTx(ctx, nil, fn)
}

// ReadTx is like Tx but asks the driver for a read-only transaction.
func (m Models) ReadTx(ctx context.Context, fn func(tx Models) error) error {
	return m.runTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m Models) runTx(ctx context.Context, opts *sql.TxOptions, fn func(tx Models) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	// Rollback after a successful Commit returns sql.ErrTxDone and is harmless.
	defer tx.Rollback()

	if err := fn(m.bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

// Ping checks that the database is reachable.
func (m Models) Ping(ctx context.Context) error {
	if err := m.pool.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Filters holds pagination parameters extracted from URL query strings.
type Filters struct {
	Skip  int // Number of records to skip
	Limit int // Maximum number of records to return
}

// DefaultFilters returns the filters used when the caller supplies none.
func DefaultFilters() Filters {
	return Filters{Skip: 0, Limit: DefaultPageSize}
}

// ValidateFilters checks the pagination bounds.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Skip >= 0, "skip", "must be zero or greater")
	v.Check(f.Limit > 0, "limit", "must be greater than zero")
	v.Check(f.Limit <= MaxPageSize, "limit", "must be a maximum of "+strconv.Itoa(MaxPageSize))
}

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	Skip         int `json:"skip"`
	Limit        int `json:"limit"`
	TotalRecords int `json:"total_records"`
}

// dialect is the name of the database/sql driver in use. Queries are written
// with "?" placeholders and rewritten for drivers that need numbered ones.
type dialect string

// rebind converts "?" placeholders to "$1", "$2", ... for PostgreSQL.
func (d dialect) rebind(query string) string {
	if d != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
