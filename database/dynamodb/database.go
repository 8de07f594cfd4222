// Package dynamodb implements depot.MetadataStore on an Amazon DynamoDB
// table keyed by a string partition key holding the file id.
//
// The table is provisioned outside depot. Migrate is therefore a no-op and
// Validate only checks that the existing key schema matches.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sagarc03/depot"
)

// DefaultKeyAttribute is the partition key attribute used when none is configured.
const DefaultKeyAttribute = "file_id"

// API is the subset of the DynamoDB client used by the store.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type database struct {
	api     API
	table   string
	keyAttr string
}

// Connect builds a DynamoDB client from cfg. An empty keyAttr selects
// DefaultKeyAttribute.
func Connect(cfg aws.Config, table, keyAttr string) (*database, error) {
	return New(dynamodb.NewFromConfig(cfg), table, keyAttr)
}

// New wraps an existing client.
func New(api API, table, keyAttr string) (*database, error) {
	if table == "" {
		return nil, errors.New("connect dynamodb: table name cannot be empty")
	}
	if keyAttr == "" {
		keyAttr = DefaultKeyAttribute
	}
	return &database{api: api, table: table, keyAttr: keyAttr}, nil
}

// Ping verifies the table is reachable.
func (d *database) Ping(ctx context.Context) error {
	if _, err := d.describe(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Migrate does nothing. DynamoDB tables are provisioned with the deployment.
func (d *database) Migrate(context.Context) error {
	return nil
}

// Validate checks that the table's partition key is the configured string attribute.
func (d *database) Validate(ctx context.Context) error {
	desc, err := d.describe(ctx)
	if err != nil {
		return fmt.Errorf("validate table %s: %w", d.table, err)
	}

	var hashKey string
	for _, k := range desc.KeySchema {
		if k.KeyType == types.KeyTypeHash {
			hashKey = aws.ToString(k.AttributeName)
		}
		if k.KeyType == types.KeyTypeRange {
			return fmt.Errorf("validate table %s: unexpected sort key %s", d.table, aws.ToString(k.AttributeName))
		}
	}
	if hashKey != d.keyAttr {
		return fmt.Errorf("validate table %s: expected partition key %s, got %q", d.table, d.keyAttr, hashKey)
	}

	for _, def := range desc.AttributeDefinitions {
		if aws.ToString(def.AttributeName) == d.keyAttr && def.AttributeType != types.ScalarAttributeTypeS {
			return fmt.Errorf("validate table %s: partition key %s must be a string, got %s", d.table, d.keyAttr, def.AttributeType)
		}
	}

	return nil
}

func (d *database) describe(ctx context.Context) (*types.TableDescription, error) {
	out, err := d.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err != nil {
		return nil, classify("describe table", err)
	}
	if out.Table == nil {
		return nil, depot.NewStoreError("describe table", depot.ErrBackendUnavailable, fmt.Errorf("table %s has no description", d.table))
	}
	return out.Table, nil
}

// GetStore returns the MetadataStore backed by the table.
func (d *database) GetStore() depot.MetadataStore {
	return &store{api: d.api, table: d.table, keyAttr: d.keyAttr}
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (d *database) Close() error {
	return nil
}
