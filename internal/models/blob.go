package models

import "time"

// Blob is the metadata row for one distinct stored content object.
type Blob struct {
	ID        string    `json:"id" yaml:"id"`
	Checksum  string    `json:"checksum" yaml:"checksum"`
	MimeType  string    `json:"mime_type" yaml:"mime_type"`
	Size      int64     `json:"size" yaml:"size"`
	RefCount  int64     `json:"ref_count" yaml:"ref_count"`
	BlobKey   string    `json:"blob_key" yaml:"blob_key"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
