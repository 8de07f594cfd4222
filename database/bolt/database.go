// Package bolt implements depot.MetadataStore on an embedded BoltDB file.
// Records are JSON documents in a single bucket keyed by file id.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	boltdb "github.com/boltdb/bolt"
	"github.com/sagarc03/depot"
)

var errBucketMissing = errors.New("bucket does not exist")

type database struct {
	db     *boltdb.DB
	bucket []byte
}

// Connect opens (creating if needed) the BoltDB file at path. The file lock
// is awaited for at most one second.
func Connect(_ context.Context, path, bucket string) (*database, error) {
	if bucket == "" {
		return nil, errors.New("connect bolt: bucket name cannot be empty")
	}

	db, err := boltdb.Open(path, 0o600, &boltdb.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("connect bolt: %w", err)
	}

	return &database{db: db, bucket: []byte(bucket)}, nil
}

// Ping checks that the database file is still open.
func (d *database) Ping(context.Context) error {
	err := d.db.View(func(*boltdb.Tx) error { return nil })
	if err != nil {
		return classify("ping", err)
	}
	return nil
}

// Migrate creates the bucket if it does not exist.
func (d *database) Migrate(context.Context) error {
	err := d.db.Update(func(tx *boltdb.Tx) error {
		_, err := tx.CreateBucketIfNotExists(d.bucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate: create bucket %s: %w", d.bucket, err)
	}
	return nil
}

// Validate checks that the bucket exists.
func (d *database) Validate(context.Context) error {
	return d.db.View(func(tx *boltdb.Tx) error {
		if tx.Bucket(d.bucket) == nil {
			return fmt.Errorf("validate bucket %s: %w", d.bucket, errBucketMissing)
		}
		return nil
	})
}

// GetStore returns the MetadataStore backed by the bucket.
func (d *database) GetStore() depot.MetadataStore {
	return &store{db: d.db, bucket: d.bucket}
}

// Close releases the file lock and closes the database.
func (d *database) Close() error {
	return d.db.Close()
}
