package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type txContextKey struct{}

// WithTransaction executes fn inside a database transaction
func WithTransaction(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
	return WithTransactionOptions(ctx, db, pgx.TxOptions{}, fn)
}

// WithTransactionOptions executes fn inside a transaction started with opts
func WithTransactionOptions(ctx context.Context, db *database.DB, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTxWithOptions(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	// Execute function
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ContextWithTx returns a context whose repository calls run on tx
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetQuerier returns either transaction or pool
// Used in repositories to support both transactional and non-transactional operations
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

type transactor struct {
	db *database.DB
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.run(ctx, pgx.TxOptions{}, fn)
}

func (t *transactor) WithinSerializableTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (t *transactor) run(ctx context.Context, opts pgx.TxOptions, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return WithTransactionOptions(ctx, t.db, opts, func(tx pgx.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

func NewTransactor(db *database.DB) database.Transactor {
	return &transactor{db: db}
}

// withSavepoint runs fn atomically. Inside a surrounding transaction it uses a
// savepoint so a failed fn does not abort the outer transaction.
func withSavepoint(ctx context.Context, db *database.DB, fn func(q database.Querier) error) error {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin savepoint: %w", err)
		}
		if err := fn(sp); err != nil {
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return fmt.Errorf("rollback savepoint: %v (original error: %w)", rbErr, err)
			}
			return err
		}
		return sp.Commit(ctx)
	}
	return WithTransaction(ctx, db, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
