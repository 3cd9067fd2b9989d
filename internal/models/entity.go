package models

import "time"

// Entity is the versioned base embedded by every stored record kind.
type Entity struct {
	ID        string     `json:"id" yaml:"id"`
	Version   int64      `json:"version" yaml:"version"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// Meta exposes the embedded Entity so generic code can reach it through any record pointer.
func (e *Entity) Meta() *Entity { return e }

// IsDeleted reports whether the record has been soft-deleted.
func (e Entity) IsDeleted() bool { return e.DeletedAt != nil }
