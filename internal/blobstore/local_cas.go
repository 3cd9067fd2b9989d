package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	casAlgorithmPrefix = "sha256"
	stagingDir         = "staging"
)

var errNotConfigured = errors.New("content store is not configured")

// LocalCAS keeps blob content on the local filesystem under
// sha256/<aa>/<bb>/<digest>. New content is staged under staging/ first.
type LocalCAS struct {
	root string
}

// NewLocalCAS opens a content tree at root, creating it when missing.
func NewLocalCAS(root string) (*LocalCAS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &LocalCAS{root: abs}, nil
}

// Stage copies r into the staging area, hashing as it goes.
func (c *LocalCAS) Stage(ctx context.Context, r io.Reader) (*Staged, error) {
	if c == nil {
		return nil, errNotConfigured
	}
	if r == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Join(c.root, stagingDir), "blob-*")
	if err != nil {
		return nil, fmt.Errorf("stage content: %w", err)
	}
	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(f, h), r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("stage content: %w", err)
	}

	digest := hex.EncodeToString(h.Sum(nil))
	return &Staged{Checksum: digest, Size: n, Key: keyForDigest(digest), path: f.Name()}, nil
}

// Commit moves staged content to its digest path unless that path is
// already occupied.
func (c *LocalCAS) Commit(ctx context.Context, staged *Staged) (bool, error) {
	if c == nil {
		return false, errNotConfigured
	}
	if staged == nil || staged.path == "" {
		return false, fmt.Errorf("nothing staged")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dst, err := c.pathFromKey(staged.Key)
	if err != nil {
		return false, err
	}

	switch _, err := os.Stat(dst); {
	case err == nil:
		c.Discard(staged)
		return false, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("commit %s: %w", staged.Key, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, fmt.Errorf("commit %s: %w", staged.Key, err)
	}
	if err := os.Rename(staged.path, dst); err != nil {
		return false, fmt.Errorf("commit %s: %w", staged.Key, err)
	}
	staged.path = ""
	return true, nil
}

// Discard removes staged content that was not committed. It is safe to
// call after Commit.
func (c *LocalCAS) Discard(staged *Staged) {
	if staged == nil || staged.path == "" {
		return
	}
	_ = os.Remove(staged.path)
	staged.path = ""
}

// Open returns a reader for the content stored under key.
func (c *LocalCAS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if c == nil {
		return nil, errNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := c.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the content stored under key. Missing content is not an
// error.
func (c *LocalCAS) Delete(ctx context.Context, key string) error {
	if c == nil {
		return errNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := c.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Checksum returns the hex SHA-256 digest blobs are deduplicated by.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func keyForDigest(digest string) string {
	return strings.Join([]string{casAlgorithmPrefix, digest[:2], digest[2:4], digest}, "/")
}

// pathFromKey maps a key to a path inside the content tree. Keys that are
// absolute or climb out of the tree are rejected.
func (c *LocalCAS) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("content key is required")
	}
	rel := filepath.FromSlash(key)
	if filepath.IsAbs(rel) || strings.HasPrefix(key, "/") || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid content key %q", key)
	}
	return filepath.Join(c.root, filepath.Clean(rel)), nil
}
