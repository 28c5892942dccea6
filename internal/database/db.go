// Package database provides database setup, migrations and the sqlx-backed
// message store.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  //revive:disable:blank-imports
	_ "modernc.org/sqlite" //revive:disable:blank-imports

	"github.com/edgard/chatmessages/internal/config"
	"github.com/edgard/chatmessages/migrations"
)

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// NewDB opens the connection pool for cfg, applies migrations and returns it.
func NewDB(cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	switch cfg.Driver {
	case DriverSQLite:
		// SQLite doesn't support concurrent writes, so max open conns = 1
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := ApplyMigrations(db, cfg.DSN, logger); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("Database connected and migrations applied successfully",
		"driver", cfg.Driver, "database_name", DatabaseName(cfg.DSN))
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("Error closing database connection", "error", err)
	} else {
		logger.Info("Database connection closed successfully.")
	}
}

// ApplyMigrations runs the embedded migrations of db's dialect.
// SQLite migrates over db itself; Postgres migrates over a short-lived
// connection of its own because the migrate driver pins one until closed.
func ApplyMigrations(db *sqlx.DB, dsn string, logger *slog.Logger) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}
	if logger == nil {
		logger = slog.Default()
	}

	driver := db.DriverName()
	logger.Info("Applying database migrations...", "driver", driver)

	sourceDriver, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	var (
		dbDriver database.Driver
		ownConn  *sql.DB
	)
	switch driver {
	case DriverSQLite:
		dbDriver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{
			DatabaseName: DatabaseName(dsn),
		})
		if err != nil {
			return fmt.Errorf("failed to create sqlite migration driver: %w", err)
		}
	case DriverPostgres:
		ownConn, err = sql.Open(DriverPostgres, dsn)
		if err != nil {
			return fmt.Errorf("failed to open postgres migration connection: %w", err)
		}
		dbDriver, err = migratepostgres.WithInstance(ownConn, &migratepostgres.Config{})
		if err != nil {
			_ = ownConn.Close()
			return fmt.Errorf("failed to create postgres migration driver: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, driver, dbDriver)
	if err != nil {
		if ownConn != nil {
			_ = dbDriver.Close()
		}
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if ownConn != nil {
		// Closing the migrator closes ownConn; the sqlite migrator is left
		// open because it shares db.
		defer func() {
			srcErr, dbErr := migrator.Close()
			if closeErr := errors.Join(srcErr, dbErr); closeErr != nil {
				logger.Warn("Error closing migration connection", "error", closeErr)
			}
		}()
	}

	migrateErr := migrator.Up()
	if migrateErr != nil {
		if errors.Is(migrateErr, migrate.ErrNoChange) {
			logger.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", migrateErr)
	}

	logger.Info("Database migrations applied successfully.")
	return nil
}

// DatabaseName extracts the database file path or name from a DSN, for
// logging and the migration driver. Credentials are never part of the result.
func DatabaseName(dsn string) string {
	if strings.Contains(dsn, "dbname=") {
		for _, field := range strings.Fields(dsn) {
			if name, ok := strings.CutPrefix(field, "dbname="); ok {
				return name
			}
		}
	}

	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Scheme != "file" {
		return strings.TrimPrefix(u.Path, "/")
	}

	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}

	return path
}
