package bolt_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) depot.MetadataStore {
	t.Helper()
	ctx := context.Background()

	db, err := bolt.Connect(ctx, filepath.Join(t.TempDir(), "depot.db"), "files")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db.GetStore()
}

func TestStore_WriteRead(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := depot.FileRecord{
		FileID:    "a.jpg",
		Metadata:  map[string]any{"owner": "u1", "labels": []any{"cat"}},
		CreatedAt: createdAt,
	}
	require.NoError(t, store.Write(ctx, rec))

	got, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec.Metadata, got.Metadata)
	assert.True(t, createdAt.Equal(got.CreatedAt))
}

func TestStore_WideIntegerMetadata(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	metadata := map[string]any{"id": json.Number("9007199254740993")}
	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg", Metadata: metadata, CreatedAt: time.Now()}))

	got, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, metadata, got.Metadata)
}

func TestStore_WriteOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg", Metadata: "first"}))
	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg", Metadata: "second"}))

	got, _, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Metadata)
}

func TestStore_ReadMissing(t *testing.T) {
	store := setupTestStore(t)

	_, found, err := store.Read(context.Background(), "missing.jpg")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg"}))
	require.NoError(t, store.Delete(ctx, "a.jpg"))

	_, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, store.Delete(ctx, "a.jpg"), "delete should be idempotent")
}

func TestStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "depot.db")

	db, err := bolt.Connect(ctx, path, "files")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.GetStore().Write(ctx, depot.FileRecord{FileID: "a.jpg", Metadata: "kept"}))
	require.NoError(t, db.Close())

	db, err = bolt.Connect(ctx, path, "files")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Validate(ctx))
	got, found, err := db.GetStore().Read(ctx, "a.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "kept", got.Metadata)
}

func TestDatabase_ValidateBeforeMigrate(t *testing.T) {
	ctx := context.Background()

	db, err := bolt.Connect(ctx, filepath.Join(t.TempDir(), "depot.db"), "files")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping(ctx))
	assert.Error(t, db.Validate(ctx))

	err = db.GetStore().Write(ctx, depot.FileRecord{FileID: "a.jpg"})
	assert.ErrorIs(t, err, depot.ErrBackendUnavailable)

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Validate(ctx))
}

func TestDatabase_Closed(t *testing.T) {
	ctx := context.Background()

	db, err := bolt.Connect(ctx, filepath.Join(t.TempDir(), "depot.db"), "files")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	store := db.GetStore()
	require.NoError(t, db.Close())

	assert.ErrorIs(t, db.Ping(ctx), depot.ErrBackendUnavailable)

	_, _, err = store.Read(ctx, "a.jpg")
	assert.ErrorIs(t, err, depot.ErrBackendUnavailable)
}

func TestConnect_EmptyBucket(t *testing.T) {
	_, err := bolt.Connect(context.Background(), filepath.Join(t.TempDir(), "depot.db"), "")
	assert.Error(t, err)
}
