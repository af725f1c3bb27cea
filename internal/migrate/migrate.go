// Package migrate applies the embedded guest cart schema to Postgres or SQLite.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"sprouting-academy/internal/db"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var migrationsFS embed.FS

type zapLogger struct {
	logger *zap.Logger
}

func (l zapLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l zapLogger) Verbose() bool { return false }

// Apply runs all Postgres migrations up.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}
	return up("sql/postgres", "pgx", dbDriver, logger)
}

// ApplySQLite runs all SQLite migrations up on the database file at path.
// It uses its own handle because the driver closes it when done.
func ApplySQLite(ctx context.Context, path string, logger *zap.Logger) error {
	sqlDB, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("init sqlite driver: %w", err)
	}
	return up("sql/sqlite", "sqlite", dbDriver, logger)
}

func up(dir, dbName string, dbDriver database.Driver, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srcDriver, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("init iofs: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, dbName, dbDriver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	m.Log = zapLogger{logger: logger.With(zap.String("component", "migrate"), zap.String("db", dbName))}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("migrate up: %w (migrations are embedded at build time)", err)
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err := m.Version()
	if err == nil {
		logger.Info("schema at version", zap.String("db", dbName), zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
