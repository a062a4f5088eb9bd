package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config selects the backing store. A non-empty DSN opens Postgres through
// the pgx stdlib driver; otherwise Path names a local SQLite file
// (":memory:" for an in-memory store).
type Config struct {
	DSN              string
	Path             string
	MaxConns         int
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Open connects to the configured database and runs pending migrations.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	var db *sqlx.DB
	var err error
	switch {
	case cfg.DSN != "":
		logger.Info("connecting to database", "driver", "pgx")
		db, err = sqlx.ConnectContext(ctx, "pgx", cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(cfg.MaxConns)
		}
	default:
		path := cfg.Path
		if path != ":memory:" {
			if path, err = filepath.Abs(path); err != nil {
				return nil, fmt.Errorf("resolve database path: %w", err)
			}
			if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		logger.Info("connecting to database", "driver", "sqlite", "path", path)
		db, err = sqlx.ConnectContext(ctx, "sqlite", path)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}
		// single writer; modernc sqlite does not tolerate concurrent writes
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := runMigrations(db, cfg.DSN != ""); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("successfully connected to database")
	return db, nil
}

func runMigrations(db *sqlx.DB, postgres bool) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var m *migrate.Migrate
	if postgres {
		driver, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{})
		if err != nil {
			return fmt.Errorf("create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "pgx", driver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	} else {
		driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// HealthCheck pings the database, bounded by timeout when given.
func HealthCheck(ctx context.Context, db *sqlx.DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.Debug("pinging database")
	return db.PingContext(ctx)
}
