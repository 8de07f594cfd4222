// Package s3 provides an Amazon S3 object store for depot.
//
// The caller builds the *s3.Client. For S3 compatible services (MinIO,
// LocalStack) set BaseEndpoint and UsePathStyle on the client options.
package s3

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/depot"
)

const maxPageSize = 1000

// Store keeps blobs as objects in a single bucket.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New creates a Store writing to bucket.
func New(client *s3.Client, bucket string) *Store {
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

// Put uploads data under key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return classify("put object", err)
	}
	return nil
}

// PresignGet returns a presigned GetObject URL valid for ttl. Presigning is
// a local computation, the object is not looked up.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", classify("presign get object", err)
	}
	return req.URL, nil
}

// Delete removes the object at key. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify("delete object", err)
	}
	return nil
}

// List pages through ListObjectsV2 until limit objects are collected or the
// listing ends. limit <= 0 reads every page.
func (s *Store) List(ctx context.Context, prefix string, limit int) ([]depot.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if limit > 0 {
		input.MaxKeys = aws.Int32(int32(min(limit, maxPageSize)))
	}

	files := []depot.ObjectInfo{}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("list objects", err)
		}

		for _, obj := range page.Contents {
			files = append(files, depot.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
			if limit > 0 && len(files) >= limit {
				return files, nil
			}
		}
	}

	return files, nil
}

var permissionCodes = map[string]bool{
	"AccessDenied":          true,
	"Forbidden":             true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"AllAccessDisabled":     true,
}

func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && permissionCodes[apiErr.ErrorCode()] {
		return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}
