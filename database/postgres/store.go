package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/depot"
)

type store struct {
	pool  *pgxpool.Pool
	table string
}

func (s *store) Write(ctx context.Context, rec depot.FileRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("write record %s: encode metadata: %w", rec.FileID, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, metadata, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (file_id) DO UPDATE
		SET metadata = EXCLUDED.metadata, created_at = EXCLUDED.created_at
	`, pgx.Identifier{s.table}.Sanitize())

	if _, err := s.pool.Exec(ctx, query, rec.FileID, metadata, rec.CreatedAt.UTC()); err != nil {
		return classify("write record", err)
	}

	return nil
}

func (s *store) Read(ctx context.Context, fileID string) (depot.FileRecord, bool, error) {
	query := fmt.Sprintf(`
		SELECT file_id, metadata, created_at
		FROM %s
		WHERE file_id = $1
	`, pgx.Identifier{s.table}.Sanitize())

	var rec depot.FileRecord
	var metadata []byte

	err := s.pool.QueryRow(ctx, query, fileID).Scan(&rec.FileID, &metadata, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return depot.FileRecord{}, false, nil
		}
		return depot.FileRecord{}, false, classify("read record", err)
	}

	if err := depot.UnmarshalJSON(metadata, &rec.Metadata); err != nil {
		return depot.FileRecord{}, false, fmt.Errorf("read record %s: decode metadata: %w", fileID, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	return rec, true, nil
}

func (s *store) Delete(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, pgx.Identifier{s.table}.Sanitize())

	if _, err := s.pool.Exec(ctx, query, fileID); err != nil {
		return classify("delete record", err)
	}

	return nil
}

// SQLSTATE codes reported for missing privileges or rejected credentials.
var permissionCodes = map[string]bool{
	"42501": true, // insufficient_privilege
	"28000": true, // invalid_authorization_specification
	"28P01": true, // invalid_password
}

func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && permissionCodes[pgErr.Code] {
		return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}
