package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

func TestProgressGating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.curriculum(t, "Go")
	a := h.objective(t, c.ID, "A")
	b := h.objective(t, c.ID, "B")
	d := h.objective(t, c.ID, "D", a.ID, b.ID, a.ID)

	ok, err := h.Progress.CanStart(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Progress.Start(ctx, "u1", d.ID)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "prerequisites", appErr.Field)
	assert.Contains(t, appErr.Message, a.ID+", "+b.ID)

	found, err := h.Progress.Find(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "a rejected start creates nothing")

	_, err = h.Progress.Achieve(ctx, "u1", a.ID, nil)
	require.NoError(t, err)
	_, err = h.Progress.Start(ctx, "u1", b.ID)
	require.NoError(t, err)

	ok, err = h.Progress.CanStart(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.False(t, ok, "in_progress is not achieved")

	_, err = h.Progress.Achieve(ctx, "u1", b.ID, nil)
	require.NoError(t, err)
	ok, err = h.Progress.CanStart(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Progress.CanStart(ctx, "u2", d.ID)
	require.NoError(t, err)
	assert.False(t, ok, "progress is per user")

	started, err := h.Progress.Start(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressInProgress, started.Status)

	ok, err = h.Progress.CanStart(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProgressLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.curriculum(t, "Go")
	a := h.objective(t, c.ID, "A")

	created, err := h.Progress.GetOrCreate(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressNotStarted, created.Status)
	again, err := h.Progress.GetOrCreate(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	started, err := h.Progress.Start(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), started.Version)
	startedAgain, err := h.Progress.Start(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), startedAgain.Version, "starting twice changes nothing")

	achieved, err := h.Progress.Achieve(ctx, "u1", a.ID, strPtr("done"))
	require.NoError(t, err)
	assert.Equal(t, models.ProgressAchieved, achieved.Status)
	require.NotNil(t, achieved.AchievedAt)
	assert.True(t, achieved.AchievedAt.Equal(achieved.UpdatedAt))
	assert.Equal(t, "done", achieved.Notes)

	noted, err := h.Progress.UpdateNotes(ctx, achieved.ID, "revisit closures")
	require.NoError(t, err)
	assert.Equal(t, "revisit closures", noted.Notes)

	reset, err := h.Progress.Reset(ctx, achieved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressNotStarted, reset.Status)
	assert.Nil(t, reset.AchievedAt)
	assert.Equal(t, int64(5), reset.Version)

	_, err = h.Progress.GetOrCreate(ctx, "u1", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = h.Progress.GetOrCreate(ctx, " ", a.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestProgressStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.curriculum(t, "Go")
	a := h.objective(t, c.ID, "A")
	b := h.objective(t, c.ID, "B")
	d := h.objective(t, c.ID, "D")

	_, err := h.Progress.Achieve(ctx, "u1", a.ID, nil)
	require.NoError(t, err)
	_, err = h.Progress.Start(ctx, "u1", b.ID)
	require.NoError(t, err)
	_, err = h.Progress.GetOrCreate(ctx, "u1", d.ID)
	require.NoError(t, err)
	_, err = h.Progress.Achieve(ctx, "u2", a.ID, nil)
	require.NoError(t, err)

	stats, err := h.Progress.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressStats{Total: 3, NotStarted: 1, InProgress: 1, Achieved: 1}, stats)

	achieved, err := h.Progress.ListByStatus(ctx, "u1", models.ProgressAchieved)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, []string{achieved[0].ObjectiveID})
	assert.Len(t, achieved, 1)
}
