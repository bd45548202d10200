package repositories

import (
	"context"

	"folio/internal/domain/models/drive"
)

// OwnerRepository is the owner directory backing the quota ledger
type OwnerRepository interface {
	// Ensure returns the owner row, creating it with defaultLimit if missing
	Ensure(ctx context.Context, ownerID string, defaultLimit int64) (*drive.Owner, error)

	// GetByID retrieves an owner; domain.ErrNotFound if absent
	GetByID(ctx context.Context, ownerID string) (*drive.Owner, error)

	// AddUsage increments storage_used by size only if the result stays within the limit.
	// Returns *domain.QuotaExceededError otherwise.
	AddUsage(ctx context.Context, ownerID string, size int64) (*drive.Owner, error)

	// ReleaseUsage decrements storage_used by size, clamped at zero
	ReleaseUsage(ctx context.Context, ownerID string, size int64) (*drive.Owner, error)
}
