package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

func TestProjectCreateChecksObjectives(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.curriculum(t, "Go")
	a := h.objective(t, c.ID, "A")
	gone := h.objective(t, c.ID, "Gone")
	require.NoError(t, h.Objectives.Delete(ctx, gone.ID))

	project, err := h.Projects.Create(ctx, ProjectInput{
		SpaceID:      "space-1",
		Name:         " CLI todo app ",
		ObjectiveIDs: []string{a.ID},
		Milestones:   []MilestoneInput{{Name: "Parse flags"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "CLI todo app", project.Name)
	assert.Equal(t, models.ProjectPlanning, project.Status)
	assert.Equal(t, []string{a.ID}, project.ObjectiveIDs)
	require.Len(t, project.Milestones, 1)
	assert.NotEmpty(t, project.Milestones[0].ID)
	assert.Equal(t, int64(1), project.Version)

	for _, refs := range [][]string{{a.ID, "ghost"}, {gone.ID}} {
		_, err = h.Projects.Create(ctx, ProjectInput{SpaceID: "space-1", Name: "Broken", ObjectiveIDs: refs})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Equal(t, "objective_ids", appErr.Field)
	}

	_, err = h.Projects.Create(ctx, ProjectInput{Name: "No space", Status: "paused"})
	require.Error(t, err)
	fields := []string{}
	for _, fe := range FieldErrors(err) {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"space_id", "status"}, fields)
}

func TestProjectUpdateAndStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.curriculum(t, "Go")
	a := h.objective(t, c.ID, "A")
	project, err := h.Projects.Create(ctx, ProjectInput{SpaceID: "space-1", Name: "Web crawler"})
	require.NoError(t, err)

	_, err = h.Projects.Update(ctx, project.ID, ProjectPatch{ObjectiveIDs: []string{"ghost"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	unchanged, err := h.Projects.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unchanged.Version, "a rejected update keeps the stored version")

	updated, err := h.Projects.Update(ctx, project.ID, ProjectPatch{Name: strPtr("Concurrent crawler"), ObjectiveIDs: []string{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Concurrent crawler", updated.Name)
	assert.Equal(t, []string{a.ID}, updated.ObjectiveIDs)
	assert.Equal(t, int64(2), updated.Version)

	_, err = h.Projects.UpdateStatus(ctx, project.ID, "paused")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	active, err := h.Projects.UpdateStatus(ctx, project.ID, models.ProjectActive)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectActive, active.Status)

	byStatus, err := h.Projects.ListByStatus(ctx, models.ProjectActive)
	require.NoError(t, err)
	assert.Equal(t, []string{project.ID}, ids(byStatus))
	planning, err := h.Projects.ListByStatus(ctx, models.ProjectPlanning)
	require.NoError(t, err)
	assert.Empty(t, planning)
}

func TestProjectMilestones(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	project, err := h.Projects.Create(ctx, ProjectInput{SpaceID: "space-1", Name: "Chat server"})
	require.NoError(t, err)

	_, err = h.Projects.AddMilestone(ctx, project.ID, MilestoneInput{Name: " "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	withOne, err := h.Projects.AddMilestone(ctx, project.ID, MilestoneInput{Name: "Accept connections"})
	require.NoError(t, err)
	withTwo, err := h.Projects.AddMilestone(ctx, project.ID, MilestoneInput{Name: "Broadcast"})
	require.NoError(t, err)
	require.Len(t, withTwo.Milestones, 2)
	first := withOne.Milestones[0].ID

	completed, err := h.Projects.CompleteMilestone(ctx, project.ID, first)
	require.NoError(t, err)
	done := completed.Milestone(first)
	require.NotNil(t, done)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(completed.UpdatedAt))
	assert.Nil(t, completed.Milestones[1].CompletedAt)

	_, err = h.Projects.CompleteMilestone(ctx, project.ID, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	removed, err := h.Projects.RemoveMilestone(ctx, project.ID, first)
	require.NoError(t, err)
	require.Len(t, removed.Milestones, 1)
	assert.Equal(t, "Broadcast", removed.Milestones[0].Name)
}

func TestProjectDeleteAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keep, err := h.Projects.Create(ctx, ProjectInput{SpaceID: "space-1", Name: "Keep"})
	require.NoError(t, err)
	drop, err := h.Projects.Create(ctx, ProjectInput{SpaceID: "space-1", Name: "Drop"})
	require.NoError(t, err)
	_, err = h.Projects.Create(ctx, ProjectInput{SpaceID: "space-2", Name: "Elsewhere"})
	require.NoError(t, err)

	require.NoError(t, h.Projects.Delete(ctx, drop.ID))
	_, err = h.Projects.Get(ctx, drop.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	listed, err := h.Projects.ListBySpace(ctx, "space-1")
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids(listed))
}
