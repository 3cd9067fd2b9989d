package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"prolly/internal/apperr"
)

// timeLayout is fixed width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Tx is one atomic unit of work. Every effect issued through a Tx commits
// or rolls back together, and all of them share one clock reading.
type Tx struct {
	ctx   context.Context
	tx    *sql.Tx
	now   time.Time
	store *Store
}

// Now returns the timestamp shared by every write in this unit.
func (tx *Tx) Now() time.Time {
	return tx.now
}

// Context returns the context the unit runs under.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Atomic runs fn as a single transaction. Writers are serialised by the
// store, so no other Atomic unit can observe or persist state between the
// reads and writes fn performs.
//
// The transaction is detached from ctx cancellation: once started it runs
// to commit or rollback even if the caller stops waiting.
//
// Code inside fn must issue all reads and writes through tx. A nil-tx call
// made with tx.Context() fails at once with an internal error; one made
// with any other context waits for the unit it is nested in and fails with
// a transient error once the unit wait elapses.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Tx) error) (err error) {
	ctx = context.WithoutCancel(ctx)
	release, err := s.enter(ctx, "atomic")
	if err != nil {
		return s.failed(err)
	}
	defer release()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.failed(apperr.FromStore("begin", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	tx := &Tx{ctx: context.WithValue(ctx, unitKey{}, s), tx: sqlTx, now: s.Now(), store: s}
	if err = fn(tx); err != nil {
		return s.failed(apperr.FromStore("atomic", err))
	}
	if err = sqlTx.Commit(); err != nil {
		return s.failed(apperr.FromStore("commit", err))
	}
	return nil
}

// View runs fn against a consistent read snapshot. It never writes.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	release, err := s.enter(ctx, "view")
	if err != nil {
		return s.failed(err)
	}
	defer release()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.failed(apperr.FromStore("view", err))
	}
	defer func() { _ = sqlTx.Rollback() }()

	tx := &Tx{ctx: context.WithValue(ctx, unitKey{}, s), tx: sqlTx, now: s.Now(), store: s}
	if err := fn(tx); err != nil {
		return s.failed(apperr.FromStore("view", err))
	}
	return nil
}

// unitKey marks the context of a running unit with its store.
type unitKey struct{}

// enter takes the store's single unit slot. It refuses a context that
// already belongs to a unit of this store, and gives up after unitWait.
func (s *Store) enter(ctx context.Context, op string) (func(), error) {
	if owner, _ := ctx.Value(unitKey{}).(*Store); owner == s {
		return nil, apperr.Internal(op, "nested unit: use the enclosing transaction")
	}
	release := func() { <-s.unit }
	select {
	case s.unit <- struct{}{}:
		return release, nil
	default:
	}

	timer := time.NewTimer(s.unitWait)
	defer timer.Stop()
	select {
	case s.unit <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		return nil, apperr.Wrap(apperr.KindTransient, op, ctx.Err())
	case <-timer.C:
		return nil, apperr.New(apperr.KindTransient, op, "store busy for %s", s.unitWait)
	}
}

// within runs fn inside tx when the caller already holds one, otherwise
// as its own atomic unit.
func (s *Store) within(ctx context.Context, tx *Tx, fn func(tx *Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.Atomic(ctx, fn)
}

// reading is the read-only counterpart of within.
func (s *Store) reading(ctx context.Context, tx *Tx, fn func(tx *Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.View(ctx, fn)
}

func (s *Store) failed(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindConstraint, apperr.KindInternal:
		s.logger.Error("store operation failed", "kind", apperr.KindOf(err), "error", err)
	case apperr.KindTransient:
		s.logger.Warn("store operation aborted", "kind", apperr.KindOf(err), "error", err)
	case apperr.KindStorageFull, apperr.KindDB:
		s.logger.Error("store write rejected", "kind", apperr.KindOf(err), "error", err)
	}
	return err
}

func (tx *Tx) exec(query string, args ...any) (sql.Result, error) {
	return tx.tx.ExecContext(tx.ctx, query, args...)
}

func (tx *Tx) query(query string, args ...any) (*sql.Rows, error) {
	return tx.tx.QueryContext(tx.ctx, query, args...)
}

func (tx *Tx) queryRow(query string, args ...any) *sql.Row {
	return tx.tx.QueryRowContext(tx.ctx, query, args...)
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
