package service

import (
	"context"
	"database/sql"
	"fmt"
)

// withTx runs fn in a transaction and commits only when fn returns nil.
// Security outcomes that must persist (a cascade revoke before reporting reuse)
// are therefore signalled outside fn's return value.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
