// Package sqlite implements depot.MetadataStore on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/depot"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db    *sql.DB
	table string
}

// Connect opens the SQLite database at dsn. The table name must be a valid
// SQL identifier; it is created by Migrate.
func Connect(ctx context.Context, dsn, table string) (*database, error) {
	if !depot.IsValidTableName(table) {
		return nil, fmt.Errorf("connect sqlite: invalid table name: %s", table)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across callers
	// and serialises writers.
	db.SetMaxOpenConns(1)

	return &database{
		db:    db,
		table: table,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the metadata table if it does not exist.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the metadata table matches the expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.table)
}

// GetStore returns the MetadataStore backed by this database.
func (d *database) GetStore() depot.MetadataStore {
	return &store{db: d.db, table: d.table}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
