package repositories

import "context"

// OwnerLocker serializes hierarchy mutations per owner.
// LockOwners must be called inside TransactionManager.ExecTx; locks are held until the
// transaction ends. Implementations acquire keys in sorted order to avoid deadlocks.
type OwnerLocker interface {
	LockOwners(ctx context.Context, ownerIDs ...string) error
}
