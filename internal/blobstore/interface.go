package blobstore

import (
	"context"
	"io"
)

// Staged is content that has been hashed and written aside but is not yet
// addressable. It must be committed or discarded.
type Staged struct {
	Checksum string
	Size     int64
	Key      string

	path string
}

// ContentStore holds the raw bytes behind blob metadata, addressed by key.
//
// Writes are two-phase so the digest is known before the caller decides
// whether the bytes are needed.
type ContentStore interface {
	Stage(ctx context.Context, r io.Reader) (*Staged, error)
	// Commit makes staged content addressable under its key. It reports
	// false when identical content was already stored, in which case the
	// staged copy is dropped and the stored bytes are left untouched.
	Commit(ctx context.Context, staged *Staged) (bool, error)
	Discard(staged *Staged)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var _ ContentStore = (*LocalCAS)(nil)
