// Package blobstore stores binary payloads once per distinct content,
// counts the records referencing them, and reclaims unreferenced ones
// after a grace window.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"prolly/internal/apperr"
	"prolly/internal/models"
	"prolly/internal/store"
)

const (
	// DefaultGraceWindow is how long an unreferenced blob survives before a
	// sweep may remove it.
	DefaultGraceWindow      = 24 * time.Hour
	DefaultSweepWorkers     = 4
	DefaultSweepBatchSize   = 500
	fallbackContentMimeType = "application/octet-stream"
)

// Store is the reference-counted blob store. Metadata lives in the entity
// store's blobs table; bytes live in a ContentStore.
type Store struct {
	// mu is held across each metadata unit and the content I/O that goes
	// with it, so a sweep never removes bytes a concurrent Put is about to
	// reference.
	mu sync.Mutex

	meta    *store.Store
	content ContentStore
	logger  *slog.Logger

	grace     time.Duration
	workers   int
	batchSize int
}

// Content is an open handle on stored bytes.
type Content struct {
	io.ReadCloser
	ID       string
	MimeType string
	Size     int64
	Checksum string
}

// SweepResult reports one sweep run.
type SweepResult struct {
	Removed        int   `json:"removed" yaml:"removed"`
	ReclaimedBytes int64 `json:"reclaimed_bytes" yaml:"reclaimed_bytes"`
	Failed         int   `json:"failed" yaml:"failed"`
}

// Option configures a Store.
type Option func(*Store)

// WithGraceWindow overrides DefaultGraceWindow.
func WithGraceWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithSweepWorkers bounds how many content deletions a sweep runs at once.
func WithSweepWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSweepBatchSize bounds how many blobs a sweep handles per unit.
func WithSweepBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store.
func New(meta *store.Store, content ContentStore, opts ...Option) *Store {
	s := &Store{
		meta:      meta,
		content:   content,
		logger:    slog.Default(),
		grace:     DefaultGraceWindow,
		workers:   DefaultSweepWorkers,
		batchSize: DefaultSweepBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the content read from r. If a blob with the same checksum
// exists its reference count is incremented and no bytes are duplicated;
// otherwise a new blob is created with one reference.
//
// Content is hashed before the store lock is taken; only the lookup and
// the commit of the staged bytes are serialised.
func (s *Store) Put(ctx context.Context, r io.Reader, mimeType string) (*models.Blob, error) {
	if s == nil || s.meta == nil || s.content == nil {
		return nil, apperr.Internal("blob.put", "blob store is not configured")
	}
	if r == nil {
		return nil, apperr.Validation("blob.put", "data", "content is required")
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = fallbackContentMimeType
	}

	staged, err := s.content.Stage(ctx, r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDB, "blob.put", err)
	}
	defer s.content.Discard(staged)
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		blob    *models.Blob
		written bool
	)
	err = s.meta.Atomic(ctx, func(tx *store.Tx) error {
		existing, err := tx.BlobByChecksum(staged.Checksum)
		if err != nil {
			return err
		}
		// Committing for a known checksum restores content a failed
		// sweep may have removed; otherwise it leaves the bytes alone.
		written, err = s.content.Commit(ctx, staged)
		if err != nil {
			return apperr.Wrap(apperr.KindDB, "blob.put", err)
		}
		if existing != nil {
			existing.RefCount++
			blob = existing
			return tx.SetBlobRefCount(existing.ID, existing.RefCount)
		}
		blob = &models.Blob{
			Checksum: staged.Checksum,
			MimeType: mimeType,
			Size:     staged.Size,
			RefCount: 1,
			BlobKey:  staged.Key,
		}
		return tx.InsertBlob(blob)
	})
	if err != nil {
		if written {
			if delErr := s.content.Delete(ctx, staged.Key); delErr != nil {
				s.logger.Warn("remove unreferenced content", "key", staged.Key, "error", delErr)
			}
		}
		return nil, err
	}
	if !written {
		s.logger.Debug("blob content already stored", "blob_id", blob.ID, "key", blob.BlobKey)
	}
	return blob, nil
}

// Resolve opens a blob's content. Unknown ids and blobs whose bytes are
// missing resolve to nil without error.
func (s *Store) Resolve(ctx context.Context, id string) (*Content, error) {
	if s == nil || s.meta == nil || s.content == nil {
		return nil, apperr.Internal("blob.resolve", "blob store is not configured")
	}
	blob, err := s.meta.GetBlob(ctx, id)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	rc, err := s.content.Open(ctx, blob.BlobKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("blob content missing", "blob_id", blob.ID, "key", blob.BlobKey)
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindDB, "blob.resolve", err)
	}
	return &Content{ReadCloser: rc, ID: blob.ID, MimeType: blob.MimeType, Size: blob.Size, Checksum: blob.Checksum}, nil
}

// Release drops one reference. A blob reaching zero stays until a sweep
// past its grace window; releasing a blob already at zero deletes it
// immediately. Unknown ids are ignored.
func (s *Store) Release(ctx context.Context, id string) error {
	if s == nil || s.meta == nil || s.content == nil {
		return apperr.Internal("blob.release", "blob store is not configured")
	}
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	var purged *models.Blob
	err := s.meta.Atomic(ctx, func(tx *store.Tx) error {
		blob, err := tx.BlobByID(id)
		if err != nil || blob == nil {
			return err
		}
		if blob.RefCount > 0 {
			return tx.SetBlobRefCount(blob.ID, blob.RefCount-1)
		}
		purged = blob
		return tx.DeleteBlob(blob.ID)
	})
	if err != nil {
		return err
	}
	if purged != nil {
		if err := s.content.Delete(ctx, purged.BlobKey); err != nil {
			s.logger.Warn("delete released blob content", "blob_id", purged.ID, "key", purged.BlobKey, "error", err)
		}
	}
	return nil
}

// Sweep removes every unreferenced blob created before now minus the grace
// window. Content is deleted first, with bounded parallelism; rows whose
// content could not be removed are kept for the next sweep.
func (s *Store) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	if s == nil || s.meta == nil || s.content == nil {
		return result, apperr.Internal("blob.sweep", "blob store is not configured")
	}
	ctx = context.WithoutCancel(ctx)
	cutoff := now.Add(-s.grace)

	s.mu.Lock()
	defer s.mu.Unlock()

	failed := map[string]struct{}{}
	var cursor *models.Blob
	for {
		var candidates []models.Blob
		err := s.meta.View(ctx, func(tx *store.Tx) error {
			var err error
			candidates, err = tx.ListSweepableBlobs(cutoff, cursor, s.batchSize)
			return err
		})
		if err != nil {
			return result, err
		}
		if len(candidates) == 0 {
			break
		}
		// Rows whose content survives stay behind the cursor until the
		// next sweep.
		cursor = &candidates[len(candidates)-1]

		removable := s.deleteContent(ctx, candidates, failed)
		if len(removable) > 0 {
			err = s.meta.Atomic(ctx, func(tx *store.Tx) error {
				for _, blob := range removable {
					if err := tx.DeleteBlob(blob.ID); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return result, err
			}
		}
		for _, blob := range removable {
			result.Removed++
			result.ReclaimedBytes += blob.Size
		}

		if len(candidates) < s.batchSize {
			break
		}
	}
	result.Failed = len(failed)

	s.logger.Info("blob sweep finished",
		"cutoff", cutoff.UTC().Format(time.RFC3339),
		"removed", result.Removed,
		"reclaimed_bytes", result.ReclaimedBytes,
		"failed", result.Failed,
	)
	return result, nil
}

// deleteContent removes the content of each candidate and returns those
// whose bytes are gone. Ids that fail are recorded in failed.
func (s *Store) deleteContent(ctx context.Context, candidates []models.Blob, failed map[string]struct{}) []models.Blob {
	ok := make([]atomic.Bool, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range candidates {
		g.Go(func() error {
			if err := s.content.Delete(ctx, candidates[i].BlobKey); err != nil {
				s.logger.Warn("sweep content delete failed", "blob_id", candidates[i].ID, "key", candidates[i].BlobKey, "error", err)
				return nil
			}
			ok[i].Store(true)
			return nil
		})
	}
	_ = g.Wait()

	removable := make([]models.Blob, 0, len(candidates))
	for i, blob := range candidates {
		if ok[i].Load() {
			removable = append(removable, blob)
			delete(failed, blob.ID)
			continue
		}
		failed[blob.ID] = struct{}{}
	}
	return removable
}

func (r SweepResult) String() string {
	return fmt.Sprintf("removed %d blobs, reclaimed %d bytes, %d failed", r.Removed, r.ReclaimedBytes, r.Failed)
}
