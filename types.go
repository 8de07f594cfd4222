package depot

import (
	"time"
)

const (
	// DefaultLinkTTL is the validity of download links.
	DefaultLinkTTL = time.Hour
	// DefaultSearchLimit caps every search result set.
	DefaultSearchLimit = 30
)

// FileRecord is the metadata entry stored for an uploaded file.
// FileID doubles as the object store key.
type FileRecord struct {
	FileID    string    `json:"file_id"`
	Metadata  any       `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectInfo describes one blob returned by an object store listing.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ContentEncoding describes how upload content arrives.
type ContentEncoding int

const (
	EncodingNone ContentEncoding = iota
	EncodingBase64
)

// UploadInput is a single upload. Content is decoded according to Encoding
// before it is stored. Metadata is kept as given.
type UploadInput struct {
	FileID   string
	Metadata any
	Content  []byte
	Encoding ContentEncoding
}

// UploadResult identifies the stored file.
type UploadResult struct {
	FileID string `json:"file_id"`
}

// DownloadResult carries a time limited link to the blob and its metadata.
type DownloadResult struct {
	FileID    string    `json:"file_id"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
	Metadata  any       `json:"metadata"`
}

// SizeRange bounds a size search. Max == 0 means no upper bound.
type SizeRange struct {
	Min int64
	Max int64
}

// Contains reports whether size falls inside the range.
func (r SizeRange) Contains(size int64) bool {
	return size >= r.Min && (r.Max == 0 || size <= r.Max)
}
