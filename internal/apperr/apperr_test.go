package apperr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := Validation("curriculum.create", "name", "Name is required")
	assert.Equal(t, "curriculum.create: Name is required", err.Error())

	wrapped := &Error{Kind: KindDB, Err: errors.New("disk I/O error")}
	assert.Equal(t, "disk I/O error", wrapped.Error())

	bare := &Error{Kind: KindInternal}
	assert.Equal(t, "internal", bare.Error())
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("objective.get", "objective", "abc")
	err := fmt.Errorf("load lesson: %w", base)

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindValidation))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindNotFound))
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := Cycle("objective.update", "cycle", []string{"a", "b", "a"})
	err := Wrap(KindDB, "outer", inner)

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindDAGCycle, appErr.Kind)
	assert.Equal(t, []string{"a", "b", "a"}, appErr.CycleNodes)
	assert.Nil(t, Wrap(KindDB, "outer", nil))
}

func TestCycleCopiesNodes(t *testing.T) {
	nodes := []string{"a", "a"}
	err := Cycle("op", "self", nodes)
	nodes[0] = "mutated"
	assert.Equal(t, []string{"a", "a"}, err.CycleNodes)
}

func TestFromStoreClassifiesConstraint(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "classify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE t (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO t (id) VALUES ('x')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO t (id) VALUES ('x')`)
	require.Error(t, err)

	classified := FromStore("t.insert", err)
	assert.Equal(t, KindConstraint, KindOf(classified))
	assert.ErrorIs(t, classified, err)
}

func TestFromStore(t *testing.T) {
	assert.Nil(t, FromStore("op", nil))

	generic := FromStore("op", errors.New("no such table: widgets"))
	assert.Equal(t, KindDB, KindOf(generic))

	busy := FromStore("op", errors.New("database is locked (5) (SQLITE_BUSY)"))
	assert.True(t, IsRetryable(busy))

	validation := Validation("op", "name", "bad")
	assert.Same(t, validation, FromStore("other", validation))
}
