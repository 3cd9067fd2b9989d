package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/copystructure"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

// Record is implemented by pointers to types that embed models.Entity.
type Record interface {
	Meta() *models.Entity
}

// Ref is an indexed reference column derived from a record field.
type Ref[T any] struct {
	Column string
	Value  func(*T) string
}

// Schema describes how one record kind maps onto its table.
type Schema[T any] struct {
	Table  string
	Entity string
	Refs   []Ref[T]
}

// Cond is an equality condition on a reference column.
type Cond struct {
	Column string
	Value  string
}

// Eq builds a Cond.
func Eq(column, value string) Cond {
	return Cond{Column: column, Value: value}
}

// Filter selects records for List. Results are ordered by creation time,
// then id, oldest first unless Newest is set.
type Filter struct {
	Where          []Cond
	IncludeDeleted bool
	Newest         bool
	Limit          int
}

// Collection is a versioned repository for one record kind.
//
// Every method takes an optional *Tx. A nil tx makes the call its own
// atomic unit; a non-nil tx enlists it in the caller's unit.
type Collection[T any, PT interface {
	*T
	Record
}] struct {
	store  *Store
	schema Schema[T]
	cols   map[string]struct{}
}

// NewCollection binds a schema to a store.
func NewCollection[T any, PT interface {
	*T
	Record
}](s *Store, schema Schema[T]) *Collection[T, PT] {
	cols := map[string]struct{}{"id": {}}
	for _, ref := range schema.Refs {
		cols[ref.Column] = struct{}{}
	}
	return &Collection[T, PT]{store: s, schema: schema, cols: cols}
}

// Store returns the store the collection belongs to.
func (c *Collection[T, PT]) Store() *Store {
	return c.store
}

// Create assigns an id, version 1 and timestamps to a copy of record and
// persists it. The caller's value is never modified.
func (c *Collection[T, PT]) Create(ctx context.Context, tx *Tx, record *T) (*T, error) {
	if record == nil {
		return nil, apperr.Validation(c.op("create"), "", c.schema.Entity+" is required")
	}
	fresh, err := clone(record)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, c.op("create"), err)
	}

	err = c.store.within(ctx, tx, func(tx *Tx) error {
		meta := PT(fresh).Meta()
		meta.ID = tx.NewID()
		meta.Version = 1
		meta.CreatedAt = tx.Now()
		meta.UpdatedAt = meta.CreatedAt
		meta.DeletedAt = nil
		return c.insert(tx, fresh)
	})
	if err != nil {
		return nil, err
	}
	return clone(fresh)
}

// Get returns a live record or a not_found error.
func (c *Collection[T, PT]) Get(ctx context.Context, tx *Tx, id string) (*T, error) {
	var found *T
	err := c.store.reading(ctx, tx, func(tx *Tx) error {
		var err error
		found, err = c.load(tx, id, false)
		return err
	})
	return found, err
}

// GetIncludingDeleted returns a record even when it has been soft-deleted.
func (c *Collection[T, PT]) GetIncludingDeleted(ctx context.Context, tx *Tx, id string) (*T, error) {
	var found *T
	err := c.store.reading(ctx, tx, func(tx *Tx) error {
		var err error
		found, err = c.load(tx, id, true)
		return err
	})
	return found, err
}

// Update loads the live record, applies patch to a private copy, bumps the
// version and persists it. A patch error aborts the update and leaves the
// stored version unchanged. Identity and lifecycle fields are owned by the
// store; patch changes to them are discarded.
func (c *Collection[T, PT]) Update(ctx context.Context, tx *Tx, id string, patch func(*T) error) (*T, error) {
	var updated *T
	err := c.store.within(ctx, tx, func(tx *Tx) error {
		var err error
		updated, err = c.mutate(tx, id, patch, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return clone(updated)
}

// SoftDelete marks a live record deleted and bumps its version.
func (c *Collection[T, PT]) SoftDelete(ctx context.Context, tx *Tx, id string) (*T, error) {
	return c.CascadeDelete(ctx, tx, id)
}

// CascadeDelete soft-deletes a live record and runs every rule against it in
// the same atomic unit. If any rule fails nothing is persisted.
func (c *Collection[T, PT]) CascadeDelete(ctx context.Context, tx *Tx, id string, rules ...CascadeRule[T]) (*T, error) {
	var deleted *T
	err := c.store.within(ctx, tx, func(tx *Tx) error {
		var err error
		deleted, err = c.mutate(tx, id, nil, true)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			snapshot, err := clone(deleted)
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, c.op("cascade"), err)
			}
			if err := rule(tx, snapshot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone(deleted)
}

// List returns records matching filter.
func (c *Collection[T, PT]) List(ctx context.Context, tx *Tx, filter Filter) ([]T, error) {
	var out []T
	err := c.store.reading(ctx, tx, func(tx *Tx) error {
		var err error
		out, err = c.list(tx, filter)
		return err
	})
	return out, err
}

func (c *Collection[T, PT]) op(name string) string {
	return c.schema.Entity + "." + name
}

func (c *Collection[T, PT]) columns() string {
	cols := []string{"id", "version", "created_at", "updated_at", "deleted_at"}
	for _, ref := range c.schema.Refs {
		cols = append(cols, ref.Column)
	}
	return strings.Join(append(cols, "body"), ", ")
}

func (c *Collection[T, PT]) refValues(record *T) []any {
	values := make([]any, 0, len(c.schema.Refs))
	for _, ref := range c.schema.Refs {
		values = append(values, nullIfEmpty(ref.Value(record)))
	}
	return values
}

func (c *Collection[T, PT]) insert(tx *Tx, record *T) error {
	body, err := json.Marshal(record)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, c.op("create"), err)
	}
	meta := PT(record).Meta()
	args := []any{meta.ID, meta.Version, formatTime(meta.CreatedAt), formatTime(meta.UpdatedAt), nullTime(meta.DeletedAt)}
	args = append(args, c.refValues(record)...)
	args = append(args, string(body))

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.schema.Table, c.columns(), placeholders(len(args)))
	if _, err := tx.exec(query, args...); err != nil {
		return apperr.FromStore(c.op("create"), err)
	}
	return nil
}

func (c *Collection[T, PT]) load(tx *Tx, id string, includeDeleted bool) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", c.columns(), c.schema.Table)
	record, err := c.scan(tx.queryRow(query, id))
	if err != nil {
		return nil, apperr.FromStore(c.op("get"), err)
	}
	if record == nil || (!includeDeleted && PT(record).Meta().IsDeleted()) {
		return nil, apperr.NotFound(c.op("get"), c.schema.Entity, id)
	}
	return record, nil
}

func (c *Collection[T, PT]) mutate(tx *Tx, id string, patch func(*T) error, deleting bool) (*T, error) {
	current, err := c.load(tx, id, false)
	if err != nil {
		return nil, err
	}
	before := *PT(current).Meta()

	if patch != nil {
		if err := patch(current); err != nil {
			return nil, err
		}
	}

	meta := PT(current).Meta()
	meta.ID = before.ID
	meta.CreatedAt = before.CreatedAt
	meta.DeletedAt = before.DeletedAt
	meta.Version = before.Version + 1
	meta.UpdatedAt = tx.Now()
	if deleting {
		deletedAt := tx.Now()
		meta.DeletedAt = &deletedAt
	}

	body, err := json.Marshal(current)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, c.op("update"), err)
	}

	sets := []string{"version = ?", "updated_at = ?", "deleted_at = ?"}
	args := []any{meta.Version, formatTime(meta.UpdatedAt), nullTime(meta.DeletedAt)}
	for _, ref := range c.schema.Refs {
		sets = append(sets, ref.Column+" = ?")
	}
	args = append(args, c.refValues(current)...)
	sets = append(sets, "body = ?")
	args = append(args, string(body), meta.ID, before.Version)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND version = ?", c.schema.Table, strings.Join(sets, ", "))
	res, err := tx.exec(query, args...)
	if err != nil {
		return nil, apperr.FromStore(c.op("update"), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.FromStore(c.op("update"), err)
	}
	if affected != 1 {
		return nil, apperr.New(apperr.KindTransient, c.op("update"), "%s %s changed concurrently", c.schema.Entity, id)
	}
	return current, nil
}

func (c *Collection[T, PT]) list(tx *Tx, filter Filter) ([]T, error) {
	var where []string
	var args []any
	for _, cond := range filter.Where {
		if _, ok := c.cols[cond.Column]; !ok {
			return nil, apperr.Internal(c.op("list"), "unknown filter column %q", cond.Column)
		}
		where = append(where, cond.Column+" = ?")
		args = append(args, cond.Value)
	}
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}

	query := fmt.Sprintf("SELECT %s FROM %s", c.columns(), c.schema.Table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Newest {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := tx.query(query, args...)
	if err != nil {
		return nil, apperr.FromStore(c.op("list"), err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		record, err := c.scan(rows)
		if err != nil {
			return nil, apperr.FromStore(c.op("list"), err)
		}
		if record == nil {
			continue
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromStore(c.op("list"), err)
	}
	return out, nil
}

// scan decodes one row. The meta columns are authoritative over the body.
func (c *Collection[T, PT]) scan(scanner interface {
	Scan(dest ...any) error
}) (*T, error) {
	var (
		id, createdAt, updatedAt string
		version                  int64
		deletedAt                sql.NullString
		body                     string
	)
	refs := make([]sql.NullString, len(c.schema.Refs))
	dest := []any{&id, &version, &createdAt, &updatedAt, &deletedAt}
	for i := range refs {
		dest = append(dest, &refs[i])
	}
	dest = append(dest, &body)

	if err := scanner.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	record := new(T)
	if err := json.Unmarshal([]byte(body), record); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", c.schema.Entity, id, err)
	}
	meta := PT(record).Meta()
	meta.ID = id
	meta.Version = version

	var err error
	if meta.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if meta.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if meta.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	return record, nil
}

// clone deep-copies a record so callers and the store never share
// slices, maps or pointers.
func clone[T any](v *T) (*T, error) {
	copied, err := copystructure.Copy(*v)
	if err != nil {
		return nil, err
	}
	out := copied.(T)
	return &out, nil
}
