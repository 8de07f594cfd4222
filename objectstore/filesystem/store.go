// Package filesystem provides a local directory object store for depot.
// Writes are atomic (temp file then rename) and download links are signed
// URLs that point back at the depot server's blob route.
//
// Keys map to paths, so one key cannot be both a file and a directory:
// with "img" stored, "img/a.jpg" is rejected as an invalid argument, and
// the reverse. Flat object stores such as S3 accept both.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/depot"
)

// BlobRoute is the server path prefix under which blobs are served.
const BlobRoute = "/blobs/"

const tmpPrefix = ".depot-tmp-"

// Store keeps blobs as files below an os.Root.
type Store struct {
	root      *os.Root
	signer    *depot.LinkSigner
	publicURL string
}

// New creates a Store. The root provides sandboxed file operations
// preventing path traversal. publicURL is the externally reachable base URL
// of the server hosting BlobRoute.
func New(root *os.Root, signer *depot.LinkSigner, publicURL string) *Store {
	return &Store{root: root, signer: signer, publicURL: publicURL}
}

// Put atomically writes data under key, creating intermediate directories.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !depot.IsValidKey(key) {
		return fmt.Errorf("put object %q: %w", key, depot.ErrInvalidArgument)
	}

	if err := s.checkPathConflict(key); err != nil {
		return err
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return classify("put object", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := t.Write(data); err != nil {
		return classify("put object", err)
	}

	if err := t.Sync(); err != nil {
		return classify("put object", err)
	}

	if destDir := path.Dir(key); destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return classify("put object", err)
		}
	}

	if err := s.root.Rename(tmpFile, key); err != nil {
		return classify("put object", err)
	}

	success = true
	return nil
}

// checkPathConflict rejects a key whose path, or any parent of it, is
// already taken by an entry of the other kind.
func (s *Store) checkPathConflict(key string) error {
	segments := strings.Split(key, "/")
	for i := 1; i < len(segments); i++ {
		dir := strings.Join(segments[:i], "/")
		info, err := s.root.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return classify("put object", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("put object %q: %q is a file: %w", key, dir, depot.ErrInvalidArgument)
		}
	}

	info, err := s.root.Stat(key)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return classify("put object", err)
	case info.IsDir():
		return fmt.Errorf("put object %q: key is a directory of other keys: %w", key, depot.ErrInvalidArgument)
	}
	return nil
}

// PresignGet returns a signed link to BlobRoute+key. The file is not
// required to exist.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !depot.IsValidKey(key) {
		return "", fmt.Errorf("presign %q: %w", key, depot.ErrInvalidArgument)
	}

	link, _, err := s.signer.Presign(s.publicURL, BlobRoute+key, ttl)
	if err != nil {
		return "", depot.NewStoreError("presign", depot.ErrBackendUnavailable, err)
	}

	return link, nil
}

// Get opens the blob at key. Returns depot.ErrNotFound if the file does not exist.
// The caller is responsible for closing the returned reader.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, depot.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, depot.ObjectInfo{}, err
	}

	if !depot.IsValidKey(key) || isTmp(path.Base(key)) {
		return nil, depot.ObjectInfo{}, depot.ErrNotFound
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, depot.ObjectInfo{}, depot.ErrNotFound
		}
		return nil, depot.ObjectInfo{}, classify("get object", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, depot.ObjectInfo{}, classify("get object", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, depot.ObjectInfo{}, depot.ErrNotFound
	}

	return f, depot.ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime().UTC()}, nil
}

// Delete removes the blob at key. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !depot.IsValidKey(key) {
		return fmt.Errorf("delete object %q: %w", key, depot.ErrInvalidArgument)
	}

	if err := s.root.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return classify("delete object", err)
	}
	return nil
}

// List walks the root in lexical order and returns files whose key
// starts with prefix. Walking stops once limit files are collected;
// limit <= 0 walks everything.
func (s *Store) List(ctx context.Context, prefix string, limit int) ([]depot.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []depot.ObjectInfo{}
	if err := s.walkDir(ctx, ".", prefix, limit, &entries); err != nil && !errors.Is(err, errLimitReached) {
		return nil, classify("list objects", err)
	}

	return entries, nil
}

var errLimitReached = errors.New("limit reached")

func (s *Store) walkDir(ctx context.Context, dir, prefix string, limit int, entries *[]depot.ObjectInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if isTmp(entry.Name()) {
			continue
		}

		key := path.Join(dir, entry.Name())

		if entry.IsDir() {
			// Only descend when the directory can still hold matching keys.
			dirKey := key + "/"
			if !strings.HasPrefix(dirKey, prefix) && !strings.HasPrefix(prefix, dirKey) {
				continue
			}
			if err := s.walkDir(ctx, key, prefix, limit, entries); err != nil {
				return err
			}
			continue
		}

		if !strings.HasPrefix(key, prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, depot.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime().UTC(),
		})

		if limit > 0 && len(*entries) >= limit {
			return errLimitReached
		}
	}

	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return depot.NewStoreError(op, depot.ErrPermissionDenied, err)
	}
	return depot.NewStoreError(op, depot.ErrBackendUnavailable, err)
}

func isTmp(name string) bool {
	return strings.HasPrefix(name, tmpPrefix)
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
