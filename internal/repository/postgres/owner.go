package postgres

import (
	"context"
	"fmt"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOwnerRepository implements the OwnerRepository interface
type PostgresOwnerRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewOwnerRepository creates a new owner repository
func NewOwnerRepository(config *RepositoryConfig) repositories.OwnerRepository {
	return &PostgresOwnerRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Ensure returns the owner, inserting it with defaultLimit on first use
func (r *PostgresOwnerRepository) Ensure(ctx context.Context, ownerID string, defaultLimit int64) (*drive.Owner, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, storage_used, storage_limit)
		VALUES ($1, 0, $2)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Owners)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ownerID, defaultLimit); err != nil {
		return nil, fmt.Errorf("ensure owner: %w", err)
	}
	return r.GetByID(ctx, ownerID)
}

// GetByID retrieves an owner
func (r *PostgresOwnerRepository) GetByID(ctx context.Context, ownerID string) (*drive.Owner, error) {
	query := fmt.Sprintf(`
		SELECT id, storage_used, storage_limit
		FROM %s
		WHERE id = $1
	`, r.tables.Owners)

	var owner drive.Owner
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, ownerID).Scan(&owner.ID, &owner.StorageUsed, &owner.StorageLimit)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{ResourceType: "owner", ResourceID: ownerID}
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return &owner, nil
}

// AddUsage charges size bytes in a single conditional UPDATE, so two concurrent
// charges can never both fit into the same headroom.
func (r *PostgresOwnerRepository) AddUsage(ctx context.Context, ownerID string, size int64) (*drive.Owner, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET storage_used = storage_used + $2, updated_at = NOW()
		WHERE id = $1 AND storage_used + $2 <= storage_limit
		RETURNING id, storage_used, storage_limit
	`, r.tables.Owners)

	var owner drive.Owner
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, ownerID, size).Scan(&owner.ID, &owner.StorageUsed, &owner.StorageLimit)
	if err == nil {
		return &owner, nil
	}
	if !IsPgNoRowsError(err) {
		return nil, fmt.Errorf("add usage: %w", err)
	}

	current, err := r.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return nil, &domain.QuotaExceededError{OwnerID: ownerID, Requested: size, Available: current.Available()}
}

// ReleaseUsage frees size bytes, clamped at zero
func (r *PostgresOwnerRepository) ReleaseUsage(ctx context.Context, ownerID string, size int64) (*drive.Owner, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET storage_used = GREATEST(storage_used - $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING id, storage_used, storage_limit
	`, r.tables.Owners)

	var owner drive.Owner
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, ownerID, size).Scan(&owner.ID, &owner.StorageUsed, &owner.StorageLimit)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{ResourceType: "owner", ResourceID: ownerID}
		}
		return nil, fmt.Errorf("release usage: %w", err)
	}
	return &owner, nil
}
