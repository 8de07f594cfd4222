package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/bolt"
	"github.com/sagarc03/depot/database/dynamodb"
	"github.com/sagarc03/depot/database/postgres"
	"github.com/sagarc03/depot/database/redis"
	"github.com/sagarc03/depot/database/sqlite"
)

// Supported backend types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeDynamoDB = "dynamodb"
	TypeRedis    = "redis"
	TypeBolt     = "bolt"
)

// Database is a connected metadata backend.
type Database interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Migrate creates whatever schema the backend needs. It is idempotent
	// and a no-op for backends provisioned outside depot.
	Migrate(ctx context.Context) error
	// Validate checks that the existing schema matches what the store expects.
	Validate(ctx context.Context) error
	// GetStore returns the MetadataStore served by this backend.
	GetStore() depot.MetadataStore
	// Close releases connections and file handles.
	Close() error
}

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type is one of the Type* constants.
	Type string
	// DSN is the connection string (sqlite, postgres), redis URL or bolt file path.
	DSN string
	// Table is the SQL or DynamoDB table, the bolt bucket or the redis key prefix.
	Table string
	// KeyAttribute is the DynamoDB partition key attribute.
	KeyAttribute string
	// AWS is used to build the DynamoDB client.
	AWS aws.Config
}

// Connect opens the configured backend. It does not migrate; call Migrate
// and Validate on the result as needed.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	switch cfg.Type {
	case TypeSQLite:
		return opened(sqlite.Connect(ctx, cfg.DSN, cfg.Table))
	case TypePostgres:
		return opened(postgres.Connect(ctx, cfg.DSN, cfg.Table))
	case TypeDynamoDB:
		return opened(dynamodb.Connect(cfg.AWS, cfg.Table, cfg.KeyAttribute))
	case TypeRedis:
		return opened(redis.Connect(ctx, cfg.DSN, cfg.Table))
	case TypeBolt:
		return opened(bolt.Connect(ctx, cfg.DSN, cfg.Table))
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
}

// opened keeps a failed backend constructor from yielding a non-nil
// Database holding a nil pointer.
func opened[T Database](db T, err error) (Database, error) {
	if err != nil {
		return nil, err
	}
	return db, nil
}

// HasSchema reports whether Migrate creates anything for backend type t:
// a table for the SQL backends, a bucket for bolt.
func HasSchema(t string) bool {
	switch t {
	case TypeSQLite, TypePostgres, TypeBolt:
		return true
	default:
		return false
	}
}
