package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"signet/internal/port"
)

type txKey struct{}

type txManager struct {
	db *sqlx.DB
}

// NewTxManager creates a TxManager over the given connection pool.
func NewTxManager(db *sqlx.DB) port.TxManager {
	return &txManager{db: db}
}

// WithinTx begins a transaction, binds it to the context, and commits when fn
// returns nil. A nested call joins the enclosing transaction instead of
// opening a second one.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("txManager.WithinTx: rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func txFrom(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// executor resolves the query target for a context: the bound transaction if
// one is active, otherwise the pool.
func executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db
}
