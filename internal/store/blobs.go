package store

import (
	"context"
	"database/sql"
	"time"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

const blobColumns = "id, checksum, mime_type, size, ref_count, blob_key, created_at"

// BlobByChecksum returns the blob row for a content digest, or nil.
func (tx *Tx) BlobByChecksum(checksum string) (*models.Blob, error) {
	blob, err := scanBlob(tx.queryRow(`SELECT `+blobColumns+` FROM blobs WHERE checksum = ?`, checksum))
	if err != nil {
		return nil, apperr.FromStore("blob.get", err)
	}
	return blob, nil
}

// BlobByID returns one blob row, or nil.
func (tx *Tx) BlobByID(id string) (*models.Blob, error) {
	blob, err := scanBlob(tx.queryRow(`SELECT `+blobColumns+` FROM blobs WHERE id = ?`, id))
	if err != nil {
		return nil, apperr.FromStore("blob.get", err)
	}
	return blob, nil
}

// InsertBlob inserts a new blob row. The id and created_at are assigned here.
func (tx *Tx) InsertBlob(blob *models.Blob) error {
	if blob.ID == "" {
		blob.ID = tx.NewID()
	}
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = tx.Now()
	}
	_, err := tx.exec(`
		INSERT INTO blobs (`+blobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, blob.ID, blob.Checksum, blob.MimeType, blob.Size, blob.RefCount, blob.BlobKey, formatTime(blob.CreatedAt))
	if err != nil {
		return apperr.FromStore("blob.insert", err)
	}
	return nil
}

// SetBlobRefCount stores a new reference count for one blob.
func (tx *Tx) SetBlobRefCount(id string, refCount int64) error {
	if _, err := tx.exec(`UPDATE blobs SET ref_count = ? WHERE id = ?`, refCount, id); err != nil {
		return apperr.FromStore("blob.refcount", err)
	}
	return nil
}

// DeleteBlob deletes one blob row by id.
func (tx *Tx) DeleteBlob(id string) error {
	if _, err := tx.exec(`DELETE FROM blobs WHERE id = ?`, id); err != nil {
		return apperr.FromStore("blob.delete", err)
	}
	return nil
}

// ListSweepableBlobs returns unreferenced blobs created before cutoff,
// oldest first. When after is set, only rows ordered strictly after it by
// (created_at, id) are returned. A limit <= 0 returns all of them.
func (tx *Tx) ListSweepableBlobs(cutoff time.Time, after *models.Blob, limit int) ([]models.Blob, error) {
	query := `SELECT ` + blobColumns + ` FROM blobs WHERE ref_count = 0 AND created_at < ?`
	args := []any{formatTime(cutoff)}
	if after != nil {
		createdAt := formatTime(after.CreatedAt)
		query += ` AND (created_at > ? OR (created_at = ? AND id > ?))`
		args = append(args, createdAt, createdAt, after.ID)
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := tx.query(query, args...)
	if err != nil {
		return nil, apperr.FromStore("blob.sweep", err)
	}
	defer rows.Close()

	blobs := []models.Blob{}
	for rows.Next() {
		blob, err := scanBlob(rows)
		if err != nil {
			return nil, apperr.FromStore("blob.sweep", err)
		}
		if blob == nil {
			continue
		}
		blobs = append(blobs, *blob)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromStore("blob.sweep", err)
	}
	return blobs, nil
}

// GetBlob returns one blob row by id, or nil.
func (s *Store) GetBlob(ctx context.Context, id string) (*models.Blob, error) {
	var blob *models.Blob
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		blob, err = tx.BlobByID(id)
		return err
	})
	return blob, err
}

func scanBlob(scanner interface {
	Scan(dest ...any) error
}) (*models.Blob, error) {
	blob := models.Blob{}
	var createdAt string

	err := scanner.Scan(&blob.ID, &blob.Checksum, &blob.MimeType, &blob.Size, &blob.RefCount, &blob.BlobKey, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	blob.CreatedAt = parsedCreated

	return &blob, nil
}
