package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to a depot server through its action API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a Client for cfg.Endpoint, or DefaultEndpoint when unset.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the normalized server endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health calls the server health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	_, err = c.do(req, http.StatusOK)
	return err
}

// Upload stores one file, or every file under a directory when Recursive is
// set. Recursive uploads use FileID as a key prefix and keep relative paths.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Metadata != "" && !json.Valid([]byte(opts.Metadata)) {
		return nil, fmt.Errorf("upload: %w", ErrInvalidJSON)
	}

	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !opts.Recursive || !info.IsDir() {
		fileID := opts.FileID
		if fileID == "" {
			fileID = filepath.Base(opts.LocalPath)
		}
		result, err := c.uploadSingle(ctx, opts.LocalPath, fileID, opts.Metadata)
		if err != nil {
			return nil, err
		}
		return []UploadResult{result}, nil
	}

	return c.uploadTree(ctx, opts)
}

func (c *Client) uploadTree(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	var results []UploadResult
	prefix := strings.Trim(opts.FileID, "/")

	walkErr := filepath.WalkDir(opts.LocalPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(opts.LocalPath, p)
		if err != nil {
			results = append(results, UploadResult{
				LocalPath: p,
				Err:       fmt.Errorf("calculate relative path: %w", err),
			})
			return nil
		}

		fileID := path.Join(prefix, filepath.ToSlash(rel))

		result, err := c.uploadSingle(ctx, p, fileID, opts.Metadata)
		if err != nil {
			result = UploadResult{LocalPath: p, FileID: fileID, Err: err}
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

func (c *Client) uploadSingle(ctx context.Context, localPath, fileID, metadata string) (UploadResult, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}

	query := url.Values{}
	query.Set("action", "upload")
	query.Set("fileName", fileID)
	if metadata != "" {
		query.Set("metadata", metadata)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.actionURL(query), file)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = info.Size()

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return UploadResult{}, err
	}

	var resp serverFileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return UploadResult{}, fmt.Errorf("parse response: %w", err)
	}

	return UploadResult{
		LocalPath: localPath,
		FileID:    resp.FileID,
		Size:      info.Size(),
	}, nil
}

// Download requests a download link for opts.FileID.
//
// With an empty LocalPath only the link and metadata are returned. With "-"
// the link is fetched and its content returned as an io.ReadCloser the
// caller must close. Any other LocalPath receives the content and the
// returned io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.FileID == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyFileID)
	}

	query := url.Values{}
	query.Set("action", "download")
	query.Set("imageName", opts.FileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL(query), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, nil, err
	}

	var link serverDownloadResponse
	if err := json.Unmarshal(body, &link); err != nil {
		return nil, nil, fmt.Errorf("parse response: %w", err)
	}

	result := &DownloadResult{
		FileID:    opts.FileID,
		URL:       link.DownloadURL,
		ExpiresAt: link.ExpiresAt,
		Metadata:  link.Metadata,
	}

	if opts.LocalPath == "" {
		return result, nil, nil
	}

	content, size, err := c.fetch(ctx, link.DownloadURL)
	if err != nil {
		return nil, nil, err
	}
	result.Size = size

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, content, nil
	}
	defer func() { _ = content.Close() }()

	written, err := writeFile(opts.LocalPath, content)
	if err != nil {
		return nil, nil, err
	}

	result.LocalPath = opts.LocalPath
	result.Size = written
	return result, nil, nil
}

// fetch GETs a download link and returns its body.
func (c *Client) fetch(ctx context.Context, link string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, 0, parseServerError(resp.StatusCode, body)
	}

	return resp.Body, resp.ContentLength, nil
}

func writeFile(localPath string, content io.Reader) (int64, error) {
	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("create directory: %w", err)
		}
	}

	file, err := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(file, content)
	if err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("write file: %w", err)
	}

	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	return written, nil
}

// Delete removes every file in opts.FileIDs. It keeps going past failures
// and reports each outcome in the returned slice.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.FileIDs) == 0 {
		return nil, ErrNoFileIDs
	}

	results := make([]DeleteResult, 0, len(opts.FileIDs))
	for _, fileID := range opts.FileIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.deleteSingle(ctx, fileID))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, fileID string) DeleteResult {
	query := url.Values{}
	query.Set("action", "delete")
	query.Set("imageName", fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL(query), http.NoBody)
	if err != nil {
		return DeleteResult{FileID: fileID, Err: fmt.Errorf("create request: %w", err)}
	}

	if _, err := c.do(req, http.StatusOK); err != nil {
		return DeleteResult{FileID: fileID, Err: err}
	}

	return DeleteResult{FileID: fileID, Deleted: true}
}

// HasDeleteErrors reports whether any delete failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List searches by prefix, or by size range when Prefix is empty.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	query := url.Values{}
	query.Set("action", "list")

	switch {
	case opts.Prefix != "":
		query.Set("prefix", opts.Prefix)
	case opts.MinSize > 0 || opts.MaxSize > 0:
		if opts.MinSize > 0 {
			query.Set("minSize", strconv.FormatInt(opts.MinSize, 10))
		}
		if opts.MaxSize > 0 {
			query.Set("maxSize", strconv.FormatInt(opts.MaxSize, 10))
		}
	default:
		return nil, fmt.Errorf("list: %w", ErrSearchRequired)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL(query), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var result ListResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &result, nil
}

// TotalSize sums the size of all files in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

func (c *Client) actionURL(query url.Values) string {
	return c.endpoint + "/?" + query.Encode()
}

// do executes req and returns the body when the status matches want.
func (c *Client) do(req *http.Request, want int) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return nil, parseServerError(resp.StatusCode, body)
	}

	return body, nil
}

// NormalizeLocalToRemotePath turns a local path into a file id:
//   - "./" and "/" prefixes are stripped
//   - ".." segments are resolved and leading ones dropped
//   - backslashes become forward slashes
func NormalizeLocalToRemotePath(localPath string) string {
	p := path.Clean(filepath.ToSlash(localPath))
	p = strings.TrimPrefix(p, "/")

	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}

	if p == ".." || p == "." {
		return ""
	}

	return p
}

// parseServerError builds an *APIError, decoding the JSON error body when
// the server sent one.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var payload serverErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
	}

	return apiErr
}

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is matches any *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound reports whether the server answered 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API failures. Use errors.Is to match them.
var (
	// ErrNotFound is a 404: no file with that id.
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrBadRequest is a 400: missing or malformed parameters.
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrForbidden is a 403: an expired or tampered download link.
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
