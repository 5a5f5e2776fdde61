// Package app holds process-level plumbing shared by the entrypoint.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/slotwise/slotwise/libs/db"
)

// Migrator applies goose SQL migrations on startup. Goose needs a *sql.DB,
// so it borrows one from the pgx pool and closes it without touching the
// pool itself.
type Migrator struct {
	db             *sql.DB
	logger         *slog.Logger
	migrationsPath string
}

func NewMigrator(pool *db.Pool, migrationsPath string, logger *slog.Logger) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Migrator{
		db:             stdlib.OpenDBFromPool(pool.Pool),
		logger:         logger,
		migrationsPath: migrationsPath,
	}, nil
}

func (m *Migrator) Run(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, m.migrationsPath); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}
	m.logger.Info("migrations applied", "version", version)
	return nil
}

func (m *Migrator) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
