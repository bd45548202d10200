package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles metadata transactions.
// Every hierarchy mutation runs in one ExecTx call that first takes the owner locks,
// so path and level reads inside fn are re-validated right before commit.
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error
}
