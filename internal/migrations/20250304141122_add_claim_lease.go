package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddClaimLease, downAddClaimLease)
}

func upAddClaimLease(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
		ALTER TABLE posts ADD COLUMN claimed_at TIMESTAMP WITH TIME ZONE;
	`)
	if err != nil {
		return err
	}
	return nil
}

func downAddClaimLease(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
		ALTER TABLE posts DROP COLUMN claimed_at;
	`)
	if err != nil {
		return err
	}
	return nil
}
