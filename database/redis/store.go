package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sagarc03/depot"
)

type store struct {
	client *goredis.Client
	prefix string
}

func (s *store) key(fileID string) string {
	if s.prefix == "" {
		return fileID
	}
	return s.prefix + ":" + fileID
}

func (s *store) Write(ctx context.Context, rec depot.FileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("write record %s: encode: %w", rec.FileID, err)
	}

	if err := s.client.Set(ctx, s.key(rec.FileID), data, 0).Err(); err != nil {
		return classify("write record", err)
	}
	return nil
}

func (s *store) Read(ctx context.Context, fileID string) (depot.FileRecord, bool, error) {
	data, err := s.client.Get(ctx, s.key(fileID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return depot.FileRecord{}, false, nil
		}
		return depot.FileRecord{}, false, classify("read record", err)
	}

	var rec depot.FileRecord
	if err := depot.UnmarshalJSON(data, &rec); err != nil {
		return depot.FileRecord{}, false, fmt.Errorf("read record %s: decode: %w", fileID, err)
	}

	return rec, true, nil
}

func (s *store) Delete(ctx context.Context, fileID string) error {
	if err := s.client.Del(ctx, s.key(fileID)).Err(); err != nil {
		return classify("delete record", err)
	}
	return nil
}

// Error prefixes Redis uses for authentication and ACL failures.
var permissionPrefixes = []string{"NOAUTH", "WRONGPASS", "NOPERM"}

func classify(op string, err error) error {
	var redisErr goredis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		for _, p := range permissionPrefixes {
			if strings.HasPrefix(msg, p) {
				return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
			}
		}
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}
