package drive

import (
	"context"
	"fmt"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/repositories"
	driveSvc "folio/internal/domain/services/drive"
)

// Ledger tracks storage usage per owner.
// The counter is maintained incrementally and never reconciled against the object store.
type Ledger struct {
	ownerRepo    repositories.OwnerRepository
	defaultLimit int64
}

// NewLedger creates a quota ledger that provisions owners with defaultLimit
func NewLedger(ownerRepo repositories.OwnerRepository, defaultLimit int64) *Ledger {
	return &Ledger{ownerRepo: ownerRepo, defaultLimit: defaultLimit}
}

// Owner returns the owner's row, provisioning it on first use
func (l *Ledger) Owner(ctx context.Context, ownerID string) (*drive.Owner, error) {
	owner, err := l.ownerRepo.Ensure(ctx, ownerID, l.defaultLimit)
	if err != nil {
		return nil, fmt.Errorf("ensure owner %s: %w", ownerID, err)
	}
	return owner, nil
}

// CheckUpload fails with QuotaExceededError unless size more bytes fit.
// It is advisory; Charge re-validates at commit time.
func (l *Ledger) CheckUpload(ctx context.Context, ownerID string, size int64) error {
	owner, err := l.Owner(ctx, ownerID)
	if err != nil {
		return err
	}
	if !drive.CanUpload(owner.StorageUsed, owner.StorageLimit, size) {
		return &domain.QuotaExceededError{OwnerID: ownerID, Requested: size, Available: owner.Available()}
	}
	return nil
}

// Charge adds exactly size bytes to the owner's usage
func (l *Ledger) Charge(ctx context.Context, ownerID string, size int64) error {
	if size == 0 {
		return nil
	}
	if _, err := l.Owner(ctx, ownerID); err != nil {
		return err
	}
	if _, err := l.ownerRepo.AddUsage(ctx, ownerID, size); err != nil {
		return fmt.Errorf("charge %d bytes to %s: %w", size, ownerID, err)
	}
	return nil
}

// Release frees size bytes, clamped at zero
func (l *Ledger) Release(ctx context.Context, ownerID string, size int64) error {
	if size == 0 {
		return nil
	}
	if _, err := l.ownerRepo.ReleaseUsage(ctx, ownerID, size); err != nil {
		return fmt.Errorf("release %d bytes from %s: %w", size, ownerID, err)
	}
	return nil
}

type quotaService struct {
	ledger *Ledger
}

// NewQuotaService creates the quota read service
func NewQuotaService(ledger *Ledger) driveSvc.QuotaService {
	return &quotaService{ledger: ledger}
}

// Usage returns the caller's ledger
func (s *quotaService) Usage(ctx context.Context, ownerID string) (*driveSvc.Usage, error) {
	if ownerID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing principal"}
	}
	owner, err := s.ledger.Owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &driveSvc.Usage{
		OwnerID:   owner.ID,
		Used:      owner.StorageUsed,
		Limit:     owner.StorageLimit,
		Available: owner.Available(),
	}, nil
}
