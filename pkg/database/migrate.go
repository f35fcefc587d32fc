package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate creates the session key-value table.
func Migrate(ctx context.Context, db *sql.DB) error {
	return ApplySchema(ctx, db, schema)
}

// ApplySchema runs idempotent DDL (CREATE ... IF NOT EXISTS) against db.
func ApplySchema(ctx context.Context, db *sql.DB, ddl string) error {
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
