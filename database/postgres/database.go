// Package postgres implements depot.MetadataStore on PostgreSQL using a pgx
// connection pool. Metadata trees are stored in a JSONB column.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/depot"
)

type database struct {
	pool  *pgxpool.Pool
	table string
}

// Connect establishes a connection pool to PostgreSQL. The table name must
// be a valid SQL identifier; it is created by Migrate.
func Connect(ctx context.Context, dsn, table string) (*database, error) {
	if !depot.IsValidTableName(table) {
		return nil, fmt.Errorf("connect postgres: invalid table name: %s", table)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:  pool,
		table: table,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the metadata table if it does not exist.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the metadata table matches the expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.table)
}

// GetStore returns the MetadataStore backed by this pool.
func (d *database) GetStore() depot.MetadataStore {
	return &store{pool: d.pool, table: d.table}
}

// Close closes the database connection pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
