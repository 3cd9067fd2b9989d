// Package apperr defines the error kinds shared by the store, graph, blob
// and service layers.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind classifies an error for callers deciding how to react to it.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindDAGCycle    Kind = "dag_cycle"
	KindStorageFull Kind = "storage_full"
	KindConstraint  Kind = "constraint"
	KindTransient   Kind = "transient"
	KindInternal    Kind = "internal"
	KindDB          Kind = "db"
)

// Error is the concrete error value returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Field names the first offending input field for validation errors.
	Field string
	// CycleNodes lists the cycle path for dag_cycle errors, starting and
	// ending with the repeated node.
	CycleNodes []string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. Errors that already carry a kind are
// returned unchanged.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation reports a structural rule failure on one input field.
func Validation(op, field, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Message: message}
}

// NotFound reports a missing or soft-deleted record.
func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// Cycle reports a rejected prerequisite set. nodes is nil for cross-scope rejections.
func Cycle(op, message string, nodes []string) *Error {
	return &Error{Kind: KindDAGCycle, Op: op, Message: message, CycleNodes: append([]string(nil), nodes...)}
}

// Internal reports a broken invariant.
func Internal(op, format string, args ...any) *Error {
	return New(KindInternal, op, format, args...)
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	return Is(err, KindTransient)
}

// FromStore classifies a database/sql or sqlite driver error.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	kind := KindDB
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_FULL:
			kind = KindStorageFull
		case sqlite3.SQLITE_CONSTRAINT:
			kind = KindConstraint
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			kind = KindTransient
		}
	} else if isBusyText(err) {
		kind = KindTransient
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func isBusyText(err error) bool {
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") || strings.Contains(message, "sqlite_busy")
}
