// Package main is the entry point for the book review API server.
// It wires together configuration, the database connection, the
// authenticator and the HTTP router.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aoideee/bookreviews/internal/auth"
	"github.com/aoideee/bookreviews/internal/catalog"
	"github.com/aoideee/bookreviews/internal/data"

	_ "github.com/lib/pq"           // Register the PostgreSQL driver with database/sql.
	_ "github.com/mattn/go-sqlite3" // Register the SQLite driver with database/sql.
)

// appVersion is the current version of the API, shown in logs and the healthcheck.
const appVersion = "1.0.0"

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config  serverConfig        // Server configuration loaded from flags and environment
	logger  *slog.Logger        // Structured logger that writes to stdout
	catalog *catalog.Service    // Book and review operations
	auth    *auth.Authenticator // Static credential check run on every request
}

// main is the application entry point.
// It loads configuration, opens the database, wires up dependencies, and starts the HTTP server.
func main() {
	settings, err := loadConfig(os.Args[1:])
	if err != nil {
		code := configExitCode(err)
		if code != 0 {
			slog.Error("invalid configuration", "error", err)
		}
		os.Exit(code)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: settings.logLevel}))

	authenticator, err := newAuthenticator(settings)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	// Open and verify the database connection pool.
	db, err := openDB(settings)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close() // Close the pool cleanly when main() returns.

	logger.Info("database connection pool established", "driver", settings.db.driver)

	if settings.db.migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = data.Migrate(ctx, db, settings.db.driver)
		cancel()
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		logger.Info("database schema is up to date")
	}

	// Bundle all shared dependencies into a single struct.
	appInstance := &applicationDependencies{
		config:  settings,
		logger:  logger,
		catalog: catalog.New(data.NewModels(db, settings.db.driver), settings.db.timeout, logger),
		auth:    authenticator,
	}

	if err := appInstance.serve(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// newAuthenticator builds the Authenticator from the configured credential.
// A bcrypt hash takes precedence over a plaintext password.
func newAuthenticator(settings serverConfig) (*auth.Authenticator, error) {
	if settings.auth.passwordHash != "" {
		return auth.New(settings.auth.username, []byte(settings.auth.passwordHash), settings.auth.realm)
	}
	return auth.NewFromSecret(settings.auth.username, settings.auth.password, settings.auth.realm, settings.auth.bcryptCost)
}

// configExitCode maps a loadConfig error onto the process exit status.
// Asking for -h prints usage and is not a failure.
func configExitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

// openDB opens a connection pool for the configured driver and DSN,
// then pings the database with a 5-second timeout to confirm it is reachable.
// Returns the pool on success, or an error if the connection cannot be established.
func openDB(settings serverConfig) (*sql.DB, error) {
	dsn := settings.db.dsn
	if settings.db.driver == data.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	// sql.Open only validates the DSN format; it does not actually connect yet.
	db, err := sql.Open(settings.db.driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(settings.db.maxOpenConns)
	db.SetMaxIdleConns(settings.db.maxIdleConns)
	db.SetConnMaxIdleTime(settings.db.maxIdleTime)

	// Create a context that cancels automatically after 5 seconds.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// PingContext performs a real round-trip to verify the database is reachable.
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	if settings.db.driver == data.DriverSQLite {
		if err := checkForeignKeys(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// sqliteDSN turns on foreign key enforcement for every connection the
// driver opens. SQLite ships with it off, and without it deleting a book
// would leave its reviews behind. An explicit setting in dsn is kept as is
// so that checkForeignKeys can reject it.
func sqliteDSN(dsn string) string {
	base, query, _ := strings.Cut(dsn, "?")
	for _, param := range strings.Split(query, "&") {
		key, _, _ := strings.Cut(param, "=")
		if key == "_foreign_keys" || key == "_fk" {
			return dsn
		}
	}
	if query == "" {
		return base + "?_foreign_keys=on"
	}
	return dsn + "&_foreign_keys=on"
}

// checkForeignKeys refuses a SQLite pool that does not enforce foreign keys.
func checkForeignKeys(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("read foreign_keys pragma: %w", err)
	}
	if enabled == 0 {
		return errors.New("sqlite foreign key enforcement is disabled; remove _foreign_keys=off from the DSN")
	}
	return nil
}
