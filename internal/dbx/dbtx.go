// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// and helpers to run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is a unit of work executed against a transactional handle.
type TxFunc func(ctx context.Context, tx DBTX) error

// TxRunner runs a unit of work atomically. Services depend on it instead of
// *sql.DB so tests can substitute an in-memory implementation.
type TxRunner interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
// A cancelled ctx makes database/sql roll the transaction back.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// SQLTxRunner is a TxRunner over *sql.DB with fixed transaction options.
type SQLTxRunner struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLTxRunner returns a runner using opts for every transaction (nil means
// driver defaults).
func NewSQLTxRunner(db *sql.DB, opts *sql.TxOptions) *SQLTxRunner {
	return &SQLTxRunner{db: db, opts: opts}
}

// NewReadCommittedTxRunner returns a runner whose transactions use READ
// COMMITTED isolation. Writers that must not race take row locks
// (SELECT ... FOR UPDATE) and re-check state after acquiring them; a
// blocked reader then sees the winner's committed row instead of failing
// with a serialization error.
func NewReadCommittedTxRunner(db *sql.DB) *SQLTxRunner {
	return NewSQLTxRunner(db, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// RunInTx implements TxRunner.
func (r *SQLTxRunner) RunInTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, r.db, r.opts, fn)
}
