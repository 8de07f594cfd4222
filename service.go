package depot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ObjectStore persists file contents keyed by file name.
//
// Implementations must be safe for concurrent use. Failures are reported as
// *StoreError values of kind ErrBackendUnavailable or ErrPermissionDenied.
type ObjectStore interface {
	// Put stores data under key, overwriting any existing blob.
	Put(ctx context.Context, key string, data []byte) error

	// PresignGet returns a link that lets an unauthenticated client fetch
	// the blob at key until ttl elapses. The blob is not required to exist.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the blob at key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	// List returns blobs whose key starts with prefix, at most limit of them.
	// A limit <= 0 returns every match. Ordering is backend defined.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
}

// MetadataStore persists FileRecord entries keyed by file id.
//
// Implementations must be safe for concurrent use and must not retry
// internally. Failures are reported as *StoreError values.
type MetadataStore interface {
	// Write creates or replaces the record for rec.FileID.
	Write(ctx context.Context, rec FileRecord) error

	// Read looks up the record for fileID. A missing record is reported as
	// found == false with a nil error.
	Read(ctx context.Context, fileID string) (rec FileRecord, found bool, err error)

	// Delete removes the record for fileID. Deleting a missing record succeeds.
	Delete(ctx context.Context, fileID string) error
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	LinkTTL     time.Duration // Validity of download links (default: 1h)
	SearchLimit int           // Cap on search results (default: 30)
}

// FileService coordinates an ObjectStore holding file contents with a
// MetadataStore holding the records that describe them.
type FileService struct {
	objects     ObjectStore
	records     MetadataStore
	linkTTL     time.Duration
	searchLimit int
	now         func() time.Time
}

// NewFileService returns a FileService over objects and records. Zero
// values in cfg fall back to the defaults.
func NewFileService(objects ObjectStore, records MetadataStore, cfg ServiceConfig) (*FileService, error) {
	if objects == nil {
		return nil, errors.New("new file service: object store is required")
	}
	if records == nil {
		return nil, errors.New("new file service: metadata store is required")
	}

	linkTTL := cfg.LinkTTL
	if linkTTL <= 0 {
		linkTTL = DefaultLinkTTL
	}
	searchLimit := cfg.SearchLimit
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}

	return &FileService{
		objects:     objects,
		records:     records,
		linkTTL:     linkTTL,
		searchLimit: searchLimit,
		now:         time.Now,
	}, nil
}

// SearchLimit reports the cap applied to search results.
func (s *FileService) SearchLimit() int {
	return s.searchLimit
}

// Upload stores the content of a file and then records its metadata.
//
// The two writes are not atomic. When the blob is stored but the record
// write fails, the blob is left in place and a warning naming the file id is
// logged. A later upload with the same id overwrites both.
//
// Error types returned:
//   - ErrInvalidArgument: empty file id or content that is not valid base64
//   - *StoreError: the object store or the metadata store failed
func (s *FileService) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	if in.FileID == "" {
		return UploadResult{}, fmt.Errorf("upload: %w: file name cannot be empty", ErrInvalidArgument)
	}

	content := in.Content
	if in.Encoding == EncodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(string(in.Content))
		if err != nil {
			return UploadResult{}, fmt.Errorf("upload %s: %w: body is not valid base64", in.FileID, ErrInvalidArgument)
		}
		content = decoded
	}

	if err := s.objects.Put(ctx, in.FileID, content); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", in.FileID, err)
	}

	rec := FileRecord{
		FileID:    in.FileID,
		Metadata:  in.Metadata,
		CreatedAt: s.now().UTC(),
	}
	if err := s.records.Write(ctx, rec); err != nil {
		slog.WarnContext(ctx, "blob stored without metadata record", "file_id", in.FileID, "error", err)
		return UploadResult{}, fmt.Errorf("upload %s: %w", in.FileID, err)
	}

	return UploadResult{FileID: in.FileID}, nil
}

// Download looks up the record for fileID and returns a time-bounded link to
// its content. No link is generated for an unknown id.
//
// Error types returned:
//   - ErrInvalidArgument: empty file id
//   - ErrNotFound: no record exists for fileID
//   - *StoreError: a store failed
func (s *FileService) Download(ctx context.Context, fileID string) (DownloadResult, error) {
	if err := ctx.Err(); err != nil {
		return DownloadResult{}, fmt.Errorf("download: %w", err)
	}

	if fileID == "" {
		return DownloadResult{}, fmt.Errorf("download: %w: file name cannot be empty", ErrInvalidArgument)
	}

	rec, found, err := s.records.Read(ctx, fileID)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download %s: %w", fileID, err)
	}
	if !found {
		return DownloadResult{}, fmt.Errorf("download %s: %w", fileID, ErrNotFound)
	}

	issuedAt := s.now()
	link, err := s.objects.PresignGet(ctx, fileID, s.linkTTL)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download %s: %w", fileID, err)
	}

	return DownloadResult{
		FileID:    fileID,
		Link:      link,
		ExpiresAt: issuedAt.Add(s.linkTTL).UTC(),
		Metadata:  rec.Metadata,
	}, nil
}

// Delete removes the blob and then the record for fileID. Both removals are
// always attempted. Deleting an unknown id succeeds.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if fileID == "" {
		return fmt.Errorf("delete: %w: file name cannot be empty", ErrInvalidArgument)
	}

	var errs []error
	if err := s.objects.Delete(ctx, fileID); err != nil {
		errs = append(errs, err)
	}
	if err := s.records.Delete(ctx, fileID); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("delete %s: %w", fileID, errors.Join(errs...))
	}

	return nil
}

// PrefixSearch lists stored files whose name starts with prefix. A limit <= 0
// applies the service search limit, as does any limit above it.
func (s *FileService) PrefixSearch(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prefix search: %w", err)
	}

	files, err := s.objects.List(ctx, prefix, s.capLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("prefix search %q: %w", prefix, err)
	}

	return truncate(files, s.capLimit(limit)), nil
}

// SizeSearch lists stored files whose size falls inside r. The whole object
// store is scanned; the result is capped like PrefixSearch.
func (s *FileService) SizeSearch(ctx context.Context, r SizeRange, limit int) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("size search: %w", err)
	}

	if r.Min < 0 || r.Max < 0 {
		return nil, fmt.Errorf("size search: %w: sizes cannot be negative", ErrInvalidArgument)
	}

	files, err := s.objects.List(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("size search: %w", err)
	}

	limit = s.capLimit(limit)
	matches := make([]ObjectInfo, 0, min(limit, len(files)))
	for _, f := range files {
		if !r.Contains(f.Size) {
			continue
		}
		matches = append(matches, f)
		if len(matches) == limit {
			break
		}
	}

	return matches, nil
}

func (s *FileService) capLimit(limit int) int {
	if limit <= 0 || limit > s.searchLimit {
		return s.searchLimit
	}
	return limit
}

func truncate(files []ObjectInfo, limit int) []ObjectInfo {
	if files == nil {
		return []ObjectInfo{}
	}
	if len(files) > limit {
		return files[:limit]
	}
	return files
}
