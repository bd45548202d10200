package memory

import (
	"context"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/repositories"
)

// OwnerRepository implements repositories.OwnerRepository in memory
type OwnerRepository struct {
	store *Store
}

// NewOwnerRepository creates an owner repository over store
func NewOwnerRepository(store *Store) repositories.OwnerRepository {
	return &OwnerRepository{store: store}
}

// Ensure returns the owner, creating it with defaultLimit
func (r *OwnerRepository) Ensure(ctx context.Context, ownerID string, defaultLimit int64) (*drive.Owner, error) {
	defer r.store.lockWrite(ctx)()

	o, ok := r.store.owners[ownerID]
	if !ok {
		o = drive.Owner{ID: ownerID, StorageLimit: defaultLimit}
		r.store.owners[ownerID] = o
	}
	return &o, nil
}

// GetByID retrieves an owner
func (r *OwnerRepository) GetByID(ctx context.Context, ownerID string) (*drive.Owner, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	o, ok := r.store.owners[ownerID]
	if !ok {
		return nil, &domain.NotFoundError{ResourceType: "owner", ResourceID: ownerID}
	}
	return &o, nil
}

// AddUsage charges size bytes if they fit
func (r *OwnerRepository) AddUsage(ctx context.Context, ownerID string, size int64) (*drive.Owner, error) {
	defer r.store.lockWrite(ctx)()

	o, ok := r.store.owners[ownerID]
	if !ok {
		return nil, &domain.NotFoundError{ResourceType: "owner", ResourceID: ownerID}
	}
	if !drive.CanUpload(o.StorageUsed, o.StorageLimit, size) {
		return nil, &domain.QuotaExceededError{OwnerID: ownerID, Requested: size, Available: o.Available()}
	}
	o.StorageUsed += size
	r.store.owners[ownerID] = o
	return &o, nil
}

// ReleaseUsage frees size bytes, clamped at zero
func (r *OwnerRepository) ReleaseUsage(ctx context.Context, ownerID string, size int64) (*drive.Owner, error) {
	defer r.store.lockWrite(ctx)()

	o, ok := r.store.owners[ownerID]
	if !ok {
		return nil, &domain.NotFoundError{ResourceType: "owner", ResourceID: ownerID}
	}
	o.StorageUsed = drive.ReleasedUsage(o.StorageUsed, size)
	r.store.owners[ownerID] = o
	return &o, nil
}
