// Package redis implements depot.MetadataStore on Redis. Each record is a
// JSON document stored under "<prefix>:<file id>".
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sagarc03/depot"
)

type database struct {
	client *goredis.Client
	prefix string
}

// Connect creates a client from a redis:// or rediss:// URL. prefix
// namespaces every key written by the store.
func Connect(ctx context.Context, dsn, prefix string) (*database, error) {
	opts, err := goredis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return New(goredis.NewClient(opts), prefix), nil
}

// New wraps an existing client.
func New(client *goredis.Client, prefix string) *database {
	return &database{client: client, prefix: prefix}
}

// Ping verifies the server is reachable and accepts our credentials.
func (d *database) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Migrate does nothing; Redis has no schema.
func (d *database) Migrate(context.Context) error {
	return nil
}

// Validate is equivalent to Ping.
func (d *database) Validate(ctx context.Context) error {
	return d.Ping(ctx)
}

// GetStore returns the MetadataStore backed by this client.
func (d *database) GetStore() depot.MetadataStore {
	return &store{client: d.client, prefix: d.prefix}
}

// Close closes the client and its connection pool.
func (d *database) Close() error {
	return d.client.Close()
}
