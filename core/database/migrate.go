package database

import (
	"context"
	"fmt"

	"slotswap-api/core/logger"
	"slotswap-api/migrations"

	"github.com/pressly/goose/v3"
)

// Migrate applies all pending embedded migrations.
func Migrate(ctx context.Context, db *Database) error {
	logger.Info("Applying database migrations...")

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations.FS)

	if err := goose.UpContext(ctx, db.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.db)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}

	logger.Info("Migrations applied successfully", "version", version)
	return nil
}
