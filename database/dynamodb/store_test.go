package dynamodb_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/depot"
	ddb "github.com/sagarc03/depot/database/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable is an in-memory DynamoDB table with a single string partition key.
type fakeTable struct {
	mu      sync.Mutex
	keyAttr string
	items   map[string]map[string]types.AttributeValue
	err     error
	schema  *types.TableDescription
}

func newFakeTable(keyAttr string) *fakeTable {
	return &fakeTable{
		keyAttr: keyAttr,
		items:   map[string]map[string]types.AttributeValue{},
		schema: &types.TableDescription{
			TableName: aws.String("files"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(keyAttr), KeyType: types.KeyTypeHash},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(keyAttr), AttributeType: types.ScalarAttributeTypeS},
			},
		},
	}
}

func (f *fakeTable) id(key map[string]types.AttributeValue) string {
	s, _ := key[f.keyAttr].(*types.AttributeValueMemberS)
	if s == nil {
		return ""
	}
	return s.Value
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[f.id(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[f.id(in.Key)]}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, f.id(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.DescribeTableOutput{Table: f.schema}, nil
}

func setupTestStore(t *testing.T, keyAttr string) (depot.MetadataStore, *fakeTable) {
	t.Helper()
	tableKey := keyAttr
	if tableKey == "" {
		tableKey = ddb.DefaultKeyAttribute
	}
	fake := newFakeTable(tableKey)
	db, err := ddb.New(fake, "files", keyAttr)
	require.NoError(t, err)
	return db.GetStore(), fake
}

func TestStore_WriteRead(t *testing.T) {
	store, fake := setupTestStore(t, "")
	ctx := context.Background()
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := depot.FileRecord{
		FileID:    "a.jpg",
		Metadata:  map[string]any{"owner": "u1", "width": json.Number("640"), "tags": []any{"x"}},
		CreatedAt: createdAt,
	}
	require.NoError(t, store.Write(ctx, rec))

	item := fake.items["a.jpg"]
	require.NotNil(t, item)
	assert.IsType(t, &types.AttributeValueMemberM{}, item["metadata"])

	got, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a.jpg", got.FileID)
	assert.Equal(t, rec.Metadata, got.Metadata)
	assert.True(t, createdAt.Equal(got.CreatedAt))
}

func TestStore_WideIntegerMetadata(t *testing.T) {
	store, fake := setupTestStore(t, "")
	ctx := context.Background()

	rec := depot.FileRecord{
		FileID:    "a.jpg",
		Metadata:  map[string]any{"id": json.Number("9007199254740993"), "ids": []any{json.Number("18446744073709551615")}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Write(ctx, rec))

	m, ok := fake.items["a.jpg"]["metadata"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "9007199254740993"}, m.Value["id"])

	got, _, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, rec.Metadata, got.Metadata)
}

func TestStore_CustomKeyAttribute(t *testing.T) {
	store, fake := setupTestStore(t, "image_id")
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg", CreatedAt: time.Now()}))

	item := fake.items["a.jpg"]
	require.NotNil(t, item)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "a.jpg"}, item["image_id"])

	_, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStore_NullMetadata(t *testing.T) {
	store, _ := setupTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg", CreatedAt: time.Now()}))

	got, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, got.Metadata)
}

func TestStore_ReadMissing(t *testing.T) {
	store, _ := setupTestStore(t, "")

	_, found, err := store.Read(context.Background(), "missing.jpg")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg", CreatedAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "a.jpg"))

	_, found, err := store.Read(ctx, "a.jpg")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, store.Delete(ctx, "a.jpg"), "delete should be idempotent")
}

func TestStore_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{name: "access denied", code: "AccessDeniedException", want: depot.ErrPermissionDenied},
		{name: "bad credentials", code: "UnrecognizedClientException", want: depot.ErrPermissionDenied},
		{name: "throttled", code: "ProvisionedThroughputExceededException", want: depot.ErrBackendUnavailable},
		{name: "missing table", code: "ResourceNotFoundException", want: depot.ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, fake := setupTestStore(t, "")
			fake.err = &smithy.GenericAPIError{Code: tt.code, Message: tt.name}
			ctx := context.Background()

			assert.ErrorIs(t, store.Write(ctx, depot.FileRecord{FileID: "a.jpg"}), tt.want)

			_, found, err := store.Read(ctx, "a.jpg")
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, found)

			assert.ErrorIs(t, store.Delete(ctx, "a.jpg"), tt.want)
		})
	}
}

func TestDatabase_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("matching schema", func(t *testing.T) {
		fake := newFakeTable("file_id")
		db, err := ddb.New(fake, "files", "")
		require.NoError(t, err)

		assert.NoError(t, db.Ping(ctx))
		assert.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx))
		assert.NoError(t, db.Close())
	})

	t.Run("other partition key", func(t *testing.T) {
		fake := newFakeTable("image_id")
		db, err := ddb.New(fake, "files", "file_id")
		require.NoError(t, err)

		err = db.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected partition key file_id")
	})

	t.Run("numeric partition key", func(t *testing.T) {
		fake := newFakeTable("file_id")
		fake.schema.AttributeDefinitions[0].AttributeType = types.ScalarAttributeTypeN
		db, err := ddb.New(fake, "files", "")
		require.NoError(t, err)

		err = db.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a string")
	})

	t.Run("sort key", func(t *testing.T) {
		fake := newFakeTable("file_id")
		fake.schema.KeySchema = append(fake.schema.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String("created_at"), KeyType: types.KeyTypeRange,
		})
		db, err := ddb.New(fake, "files", "")
		require.NoError(t, err)

		err = db.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected sort key")
	})

	t.Run("unreachable", func(t *testing.T) {
		fake := newFakeTable("file_id")
		fake.err = &smithy.GenericAPIError{Code: "ResourceNotFoundException"}
		db, err := ddb.New(fake, "files", "")
		require.NoError(t, err)

		assert.ErrorIs(t, db.Ping(ctx), depot.ErrBackendUnavailable)
	})

	t.Run("empty table name", func(t *testing.T) {
		_, err := ddb.New(newFakeTable("file_id"), "", "")
		assert.Error(t, err)
	})
}
