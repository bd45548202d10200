package memory

import (
	"context"
	"fmt"

	"folio/internal/domain/repositories"
)

// TransactionManager runs fn with exclusive access to the store
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager over store
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// ExecTx executes fn; on error every change made by fn is rolled back.
// Nested calls join the outer transaction.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		tm.store.restore(snap)
		return err
	}
	return nil
}

// Locker satisfies OwnerLocker. Transactions are already serialized, so it only
// checks that it is called inside one.
type Locker struct{}

// NewLocker creates a memory owner locker
func NewLocker() repositories.OwnerLocker {
	return Locker{}
}

// LockOwners fails when called outside ExecTx
func (Locker) LockOwners(ctx context.Context, ownerIDs ...string) error {
	if !inTx(ctx) {
		return fmt.Errorf("lock owners %v: called outside a transaction", ownerIDs)
	}
	return nil
}
