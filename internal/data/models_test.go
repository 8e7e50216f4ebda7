package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/aoideee/bookreviews/internal/validator"
)

// newTestModels opens a fresh SQLite database with foreign keys enabled and
// applies the schema.
func newTestModels(t testing.TB) (Models, *sql.DB) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return NewModels(db, DriverSQLite), db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?"

	if got := dialect(DriverSQLite).rebind(query); got != query {
		t.Errorf("sqlite rebind changed query: %q", got)
	}

	want := "SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3"
	if got := dialect(DriverPostgres).rebind(query); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestValidateFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		field   string
	}{
		{"defaults", DefaultFilters(), ""},
		{"max limit", Filters{Skip: 5, Limit: MaxPageSize}, ""},
		{"negative skip", Filters{Skip: -1, Limit: 10}, "skip"},
		{"zero limit", Filters{Skip: 0, Limit: 0}, "limit"},
		{"limit over max", Filters{Skip: 0, Limit: MaxPageSize + 1}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			ValidateFilters(v, tt.filters)
			if tt.field == "" {
				if !v.Valid() {
					t.Fatalf("unexpected errors: %v", v.Errors)
				}
				return
			}
			if _, ok := v.Errors[tt.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tt.field, v.Errors)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrRecordNotFound},
		{"pq check", &pq.Error{Code: "23514"}, ErrConstraintViolation},
		{"pq foreign key", &pq.Error{Code: "23503"}, ErrConstraintViolation},
		{"pq connection", &pq.Error{Code: "08006"}, ErrStoreUnavailable},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, ErrConstraintViolation},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ErrStoreUnavailable},
		{"conn done", sql.ErrConnDone, ErrStoreUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	other := errors.New("boom")
	if got := classify(other); got != other {
		t.Errorf("unclassified error was rewrapped: %v", got)
	}
}

func TestTxRollsBackOnError(t *testing.T) {
	m, _ := newTestModels(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.Tx(ctx, func(tx Models) error {
		if err := tx.Books.Insert(ctx, &Book{Title: "Dune", Author: "Herbert"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_, meta, err := m.Books.GetAll(ctx, DefaultFilters())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if meta.TotalRecords != 0 {
		t.Errorf("expected rollback to leave no rows, found %d", meta.TotalRecords)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	_, db := newTestModels(t)
	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if err := Migrate(context.Background(), db, "mysql"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
