package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/depot"
)

const (
	metadataAttr  = "metadata"
	createdAtAttr = "created_at"
)

type store struct {
	api     API
	table   string
	keyAttr string
}

func (s *store) key(fileID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.keyAttr: &types.AttributeValueMemberS{Value: fileID},
	}
}

func (s *store) Write(ctx context.Context, rec depot.FileRecord) error {
	metadata, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return fmt.Errorf("write record %s: encode metadata: %w", rec.FileID, err)
	}

	item := s.key(rec.FileID)
	item[metadataAttr] = metadata
	item[createdAtAttr] = &types.AttributeValueMemberS{Value: rec.CreatedAt.UTC().Format(time.RFC3339Nano)}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return classify("write record", err)
	}

	return nil
}

func (s *store) Read(ctx context.Context, fileID string) (depot.FileRecord, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(fileID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return depot.FileRecord{}, false, classify("read record", err)
	}

	// GetItem reports a missing key as an empty item, not an error.
	if len(out.Item) == 0 {
		return depot.FileRecord{}, false, nil
	}

	rec := depot.FileRecord{FileID: fileID}

	if av, ok := out.Item[metadataAttr]; ok {
		if rec.Metadata, err = unmarshalMetadata(av); err != nil {
			return depot.FileRecord{}, false, fmt.Errorf("read record %s: decode metadata: %w", fileID, err)
		}
	}

	if av, ok := out.Item[createdAtAttr].(*types.AttributeValueMemberS); ok {
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, av.Value)
		if err != nil {
			return depot.FileRecord{}, false, fmt.Errorf("read record %s: parse created_at: %w", fileID, err)
		}
	}

	return rec, true, nil
}

func (s *store) Delete(ctx context.Context, fileID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(fileID),
	})
	if err != nil {
		return classify("delete record", err)
	}
	return nil
}

// marshalMetadata converts a decoded JSON tree into an attribute value.
// json.Number is written as an N attribute using its literal text.
func marshalMetadata(v any) (types.AttributeValue, error) {
	switch t := v.(type) {
	case json.Number:
		return &types.AttributeValueMemberN{Value: t.String()}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(t))
		for k, e := range t {
			av, err := marshalMetadata(e)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, 0, len(t))
		for _, e := range t {
			av, err := marshalMetadata(e)
			if err != nil {
				return nil, err
			}
			l = append(l, av)
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return attributevalue.Marshal(v)
	}
}

// unmarshalMetadata is the inverse of marshalMetadata. N attributes come
// back as json.Number.
func unmarshalMetadata(av types.AttributeValue) (any, error) {
	switch t := av.(type) {
	case *types.AttributeValueMemberN:
		return json.Number(t.Value), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(t.Value))
		for k, e := range t.Value {
			v, err := unmarshalMetadata(e)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	case *types.AttributeValueMemberL:
		l := make([]any, 0, len(t.Value))
		for _, e := range t.Value {
			v, err := unmarshalMetadata(e)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		return l, nil
	default:
		var v any
		if err := attributevalue.Unmarshal(av, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

var permissionCodes = map[string]bool{
	"AccessDeniedException":               true,
	"UnrecognizedClientException":         true,
	"InvalidSignatureException":           true,
	"MissingAuthenticationTokenException": true,
}

func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && permissionCodes[apiErr.ErrorCode()] {
		return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}
