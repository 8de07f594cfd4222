package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	boltdb "github.com/boltdb/bolt"
	"github.com/sagarc03/depot"
)

type store struct {
	db     *boltdb.DB
	bucket []byte
}

// Bolt transactions cannot be interrupted, so ctx is only checked up front.
func (s *store) Write(ctx context.Context, rec depot.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("write record %s: encode: %w", rec.FileID, err)
	}

	err = s.db.Update(func(tx *boltdb.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return errBucketMissing
		}
		return bkt.Put([]byte(rec.FileID), data)
	})
	if err != nil {
		return classify("write record", err)
	}
	return nil
}

func (s *store) Read(ctx context.Context, fileID string) (depot.FileRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return depot.FileRecord{}, false, err
	}

	var data []byte
	err := s.db.View(func(tx *boltdb.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return errBucketMissing
		}
		// Values are only valid inside the transaction.
		if v := bkt.Get([]byte(fileID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return depot.FileRecord{}, false, classify("read record", err)
	}

	if data == nil {
		return depot.FileRecord{}, false, nil
	}

	var rec depot.FileRecord
	if err := depot.UnmarshalJSON(data, &rec); err != nil {
		return depot.FileRecord{}, false, fmt.Errorf("read record %s: decode: %w", fileID, err)
	}

	return rec, true, nil
}

func (s *store) Delete(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *boltdb.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return errBucketMissing
		}
		return bkt.Delete([]byte(fileID))
	})
	if err != nil {
		return classify("delete record", err)
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, boltdb.ErrDatabaseReadOnly) || errors.Is(err, os.ErrPermission) {
		return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}
