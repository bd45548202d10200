package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"folio/internal/repository/postgres/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema for tablePrefix.
// goose substitutes ${TABLE_PREFIX} in the SQL from the environment, and keeps its
// version table per prefix so environments sharing a database migrate independently.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, tablePrefix string, logger *slog.Logger) error {
	return withGoose(pool, tablePrefix, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		version, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		logger.Info("database migrated", "version", version, "table_prefix", tablePrefix)
		return nil
	})
}

// ResetMigrations rolls every migration back, dropping the drive tables for tablePrefix
func ResetMigrations(ctx context.Context, pool *pgxpool.Pool, tablePrefix string, logger *slog.Logger) error {
	return withGoose(pool, tablePrefix, func(db *sql.DB) error {
		if err := goose.ResetContext(ctx, db, "."); err != nil {
			return fmt.Errorf("reset migrations: %w", err)
		}
		logger.Info("database reset", "table_prefix", tablePrefix)
		return nil
	})
}

func withGoose(pool *pgxpool.Pool, tablePrefix string, fn func(db *sql.DB) error) error {
	if err := os.Setenv("TABLE_PREFIX", tablePrefix); err != nil {
		return fmt.Errorf("export table prefix: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(tablePrefix + "goose_db_version")
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn(db)
}
