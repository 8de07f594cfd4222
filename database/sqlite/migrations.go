package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the metadata table and its index. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, table string) error {
	quotedTable := quoteIdentifier(table)
	indexCreatedAt := quoteIdentifier(fmt.Sprintf("idx_%s_created_at", table))

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			file_id TEXT NOT NULL PRIMARY KEY,
			metadata TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("migrate up %s: create table: %w", table, err)
	}

	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s ON %s (created_at)
	`, indexCreatedAt, quotedTable)

	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("migrate up %s: create index created_at: %w", table, err)
	}

	return nil
}

// DropTable removes the metadata table.
func DropTable(ctx context.Context, db *sql.DB, table string) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(table))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("migrate down %s: %w", table, err)
	}
	return nil
}
