package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestStore creates a store with a unique table name for test isolation
func setupTestStore(t *testing.T) depot.MetadataStore {
	t.Helper()

	ctx := context.Background()
	table := fmt.Sprintf("files_%s", getRandomString(t))

	db, err := sqlite.Connect(ctx, ":memory:", table)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetStore()
}

// setupTestStoreClosed returns a store whose database has been closed.
func setupTestStoreClosed(t *testing.T) depot.MetadataStore {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Connect(ctx, ":memory:", "closed_files")
	require.NoError(t, err, "failed to connect")
	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	store := db.GetStore()
	require.NoError(t, db.Close())

	return store
}
