package postgres

import (
	"context"
	"fmt"
	"sort"

	"folio/internal/domain/repositories"
)

// lockNamespace keeps owner lock keys apart from other advisory lock users of the database
const lockNamespace = "folio.owner:"

// AdvisoryLocker implements OwnerLocker with transaction-scoped advisory locks
type AdvisoryLocker struct{}

// NewAdvisoryLocker creates a new advisory locker
func NewAdvisoryLocker() repositories.OwnerLocker {
	return AdvisoryLocker{}
}

// LockOwners takes pg_advisory_xact_lock for each owner in sorted order.
// The locks are released when the surrounding transaction ends.
func (AdvisoryLocker) LockOwners(ctx context.Context, ownerIDs ...string) error {
	tx := repositories.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("lock owners %v: called outside a transaction", ownerIDs)
	}
	for _, key := range lockKeys(ownerIDs) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("advisory lock %s: %w", key, err)
		}
	}
	return nil
}

func lockKeys(ownerIDs []string) []string {
	seen := make(map[string]struct{}, len(ownerIDs))
	keys := make([]string, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, lockNamespace+id)
	}
	sort.Strings(keys)
	return keys
}
