package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/depot"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type store struct {
	db    *sql.DB
	table string
}

func (s *store) Write(ctx context.Context, rec depot.FileRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("write record %s: encode metadata: %w", rec.FileID, err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (file_id, metadata, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (file_id) DO UPDATE
		SET metadata = excluded.metadata, created_at = excluded.created_at`, quoteIdentifier(s.table))

	_, err = s.db.ExecContext(ctx, query, rec.FileID, string(metadata), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return classify("write record", err)
	}

	return nil
}

func (s *store) Read(ctx context.Context, fileID string) (depot.FileRecord, bool, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT file_id, metadata, created_at FROM %s WHERE file_id = ?`, quoteIdentifier(s.table))

	var rec depot.FileRecord
	var metadata, createdAt string

	err := s.db.QueryRowContext(ctx, query, fileID).Scan(&rec.FileID, &metadata, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return depot.FileRecord{}, false, nil
		}
		return depot.FileRecord{}, false, classify("read record", err)
	}

	if err := depot.UnmarshalJSON([]byte(metadata), &rec.Metadata); err != nil {
		return depot.FileRecord{}, false, fmt.Errorf("read record %s: decode metadata: %w", fileID, err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return depot.FileRecord{}, false, fmt.Errorf("read record %s: parse created_at: %w", fileID, err)
	}

	return rec, true, nil
}

func (s *store) Delete(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = ?`, quoteIdentifier(s.table)) //nolint:gosec // table name is validated

	if _, err := s.db.ExecContext(ctx, query, fileID); err != nil {
		return classify("delete record", err)
	}

	return nil
}

func classify(op string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
			return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
		}
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}
