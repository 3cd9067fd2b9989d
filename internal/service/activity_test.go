package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

func TestProgressTransitionsAreLogged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.curriculum(t, "Go")
	a := h.objective(t, c.ID, "Syntax")
	b := h.objective(t, c.ID, "Closures", a.ID)

	_, err := h.Progress.Start(ctx, "u1", b.ID)
	require.True(t, apperr.Is(err, apperr.KindValidation))
	logged, err := h.Activities.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, logged, "a rejected start logs nothing")

	_, err = h.Progress.Start(ctx, "u1", a.ID)
	require.NoError(t, err)
	_, err = h.Progress.Start(ctx, "u1", a.ID)
	require.NoError(t, err)
	_, err = h.Progress.Achieve(ctx, "u1", a.ID, nil)
	require.NoError(t, err)

	logged, err = h.Activities.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, logged, 2, "repeating a transition logs nothing")
	achieved, started := logged[0], logged[1]
	assert.Equal(t, models.ActivityObjectiveAchieved, achieved.Type)
	assert.Equal(t, models.ActivityObjectiveStarted, started.Type)
	for _, entry := range logged {
		assert.Equal(t, "space-1", entry.SpaceID)
		assert.Equal(t, models.ActivityRefs{ObjectiveID: a.ID}, entry.Refs)
		assert.Equal(t, "Syntax", entry.Payload["name"])
	}

	byObjective, err := h.Activities.ListByObjective(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{achieved.ID}, ids(byObjective))
}

func TestActivityCorrections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry, err := h.Activities.Log(ctx, ActivityInput{
		UserID:  "u1",
		SpaceID: "space-1",
		Type:    models.ActivityLessonStarted,
		Refs:    models.ActivityRefs{LessonID: "l1"},
	})
	require.NoError(t, err)
	assert.Empty(t, entry.Payload)

	fixed, err := h.Activities.Correct(ctx, entry.ID, ActivityInput{Type: models.ActivityLessonCompleted})
	require.NoError(t, err)
	assert.Equal(t, entry.ID, fixed.ParentID)
	assert.Equal(t, "u1", fixed.UserID)
	assert.Equal(t, entry.Refs, fixed.Refs)

	again, err := h.Activities.Correct(ctx, fixed.ID, ActivityInput{Type: models.ActivityCustom, Payload: map[string]any{"minutes": 30}})
	require.NoError(t, err)

	latest, err := h.Activities.Latest(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, again.ID, latest.ID)

	_, err = h.Activities.Correct(ctx, "ghost", ActivityInput{Type: models.ActivityCustom})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = h.Activities.Log(ctx, ActivityInput{UserID: "u1", Type: "objective.deleted"})
	require.Error(t, err)
	fields := []string{}
	for _, fe := range FieldErrors(err) {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"space_id", "type"}, fields)
}
