// Command resetdb rolls back every migration for the configured table prefix.
// It refuses to touch the prod prefix.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"folio/internal/config"
	"folio/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.MetadataStore != "postgres" {
		log.Fatalf("METADATA_STORE is %q; nothing to reset", cfg.MetadataStore)
	}
	if cfg.Environment == "prod" || cfg.TablePrefix == "prod_" {
		log.Fatal("Refusing to reset production tables")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := postgres.ResetMigrations(ctx, pool, cfg.TablePrefix, logger); err != nil {
		log.Fatalf("Failed to reset database: %v", err)
	}
}
