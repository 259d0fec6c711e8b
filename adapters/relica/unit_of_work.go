package relica

import (
	"context"
	"database/sql"

	"github.com/coregx/eventuate"
)

type txContextKey struct{}

// TxFromContext returns the *sql.Tx started by UnitOfWork.RunInTransaction
// for ctx, if any. OutboxStore/InboxStore methods check this before
// falling back to the plain connection, so decorator-scoped transactions
// and ambient business-transaction contexts both work transparently.
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx, ok
}

// UnitOfWork implements eventuate.UnitOfWork over database/sql directly.
// Relica's query builder wraps a plain *sql.DB (see dlq_repository.go's
// relica.WrapDB usage in the retrieved pack) and no transaction-scoping
// API was observed anywhere it's used, so the transaction boundary itself
// is opened with database/sql rather than invented against an unobserved
// Relica API.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork wraps sqlDB for transaction-scoped decorator calls.
func NewUnitOfWork(sqlDB *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: sqlDB}
}

// RunInTransaction opens a transaction, stores it in ctx for
// TxFromContext, and runs fn. fn's return value decides commit vs
// rollback, so the duplicate-detection decorator's inbox claim and
// handler invocation commit or roll back together.
func (u *UnitOfWork) RunInTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to begin transaction", err)
	}

	txCtx := context.WithValue(ctx, txContextKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to commit transaction", err)
	}
	return nil
}
