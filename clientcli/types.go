package clientcli

import (
	"encoding/json"
	"time"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath string
	FileID    string // empty = derive from local path
	Metadata  string // JSON document stored with every uploaded file
	Recursive bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	FileID    string `json:"file_id"`
	Size      int64  `json:"size_bytes"`
	Err       error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	FileID    string
	LocalPath string // empty = link only, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	FileID    string    `json:"file_id"`
	URL       string    `json:"download_url"`
	ExpiresAt time.Time       `json:"expires_at"`
	Metadata  json.RawMessage `json:"metadata"` // exactly as the server returned it
	LocalPath string          `json:"local_path,omitempty"`
	Size      int64           `json:"size_bytes,omitempty"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	FileIDs []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	FileID  string `json:"file_id"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListOptions configures a search. A non-empty Prefix takes precedence over
// the size range. MaxSize == 0 means no upper bound.
type ListOptions struct {
	Prefix  string
	MinSize int64
	MaxSize int64
}

// ListResult contains search results.
type ListResult struct {
	Files []ObjectInfo `json:"files"`
}

// ObjectInfo represents a single stored file.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// serverFileResponse mirrors the upload and delete response bodies.
type serverFileResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

// serverDownloadResponse mirrors the download response body.
type serverDownloadResponse struct {
	DownloadURL string          `json:"downloadUrl"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Metadata    json.RawMessage `json:"metadata"`
}

// serverErrorResponse mirrors the error body written for every failure.
type serverErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
