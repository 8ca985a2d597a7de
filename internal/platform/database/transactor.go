package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Transactor runs one logical unit of store work inside a single transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type sqlTransactor struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTransactor bounds every unit by timeout; zero disables the bound.
func NewTransactor(db *sql.DB, timeout time.Duration) Transactor {
	return &sqlTransactor{db: db, timeout: timeout}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
