package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prolly/internal/apperr"
)

func TestValidateFields(t *testing.T) {
	assert.NoError(t, validateFields("op", nil, required("x", "name"), maxLength("abc", 3, "name")))

	err := validateFields("thing.create", nil, required("", "name"), maxLength(strings.Repeat("é", 4), 3, "title"))
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "thing.create", appErr.Op)
	assert.Equal(t, "name", appErr.Field)
	assert.Equal(t, "thing.create: name is required", err.Error())

	fields := FieldErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "title must be at most 3 characters", fields[1].Message)
}

func TestMaxLengthCountsCharacters(t *testing.T) {
	assert.NoError(t, maxLength(strings.Repeat("é", 3), 3, "name"))
}

func TestRetryTransient(t *testing.T) {
	ctx := context.Background()
	transient := apperr.New(apperr.KindTransient, "op", "busy")

	calls := 0
	err := RetryTransient(ctx, 3, func() error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = RetryTransient(ctx, 2, func() error {
		calls++
		return transient
	})
	assert.True(t, apperr.Is(err, apperr.KindTransient))
	assert.Equal(t, 2, calls)

	calls = 0
	permanent := apperr.Validation("op", "name", "name is required")
	err = RetryTransient(ctx, 5, func() error {
		calls++
		return permanent
	})
	assert.True(t, errors.Is(err, permanent))
	assert.Equal(t, 1, calls, "only transient errors are retried")
}

func TestRetryTransientStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryTransient(ctx, 5, func() error {
		calls++
		return apperr.New(apperr.KindTransient, "op", "busy")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryTransientUnwrapsPermanentOnLastTry(t *testing.T) {
	permanent := apperr.Validation("op", "name", "name is required")
	err := RetryTransient(context.Background(), 1, func() error { return permanent })
	assert.Same(t, permanent, err)
}
