package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"prolly/internal/apperr"
	"prolly/internal/models"
	"prolly/internal/store"
)

// ProjectInput holds the fields of a new project.
type ProjectInput struct {
	SpaceID      string
	Name         string
	Description  string
	ObjectiveIDs []string
	Milestones   []MilestoneInput
	Status       models.ProjectStatus
}

// MilestoneInput holds the fields of a new milestone.
type MilestoneInput struct {
	Name        string
	Description string
	DueDate     *time.Time
}

// ProjectPatch changes the non-nil fields of a project.
type ProjectPatch struct {
	Name         *string
	Description  *string
	ObjectiveIDs []string
}

// ProjectService manages projects and their milestones.
type ProjectService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(st *store.Store, logger *slog.Logger) *ProjectService {
	return &ProjectService{store: st, logger: logger}
}

// Create validates and stores a project. Every referenced objective must
// be live. A blank status starts the project in planning.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	const op = "project.create"
	p := &models.Project{
		SpaceID:      strings.TrimSpace(in.SpaceID),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		ObjectiveIDs: nonNil(in.ObjectiveIDs),
		Milestones:   []models.Milestone{},
		Status:       in.Status,
	}
	if p.Status == "" {
		p.Status = models.ProjectPlanning
	}
	for _, m := range in.Milestones {
		p.Milestones = append(p.Milestones, models.Milestone{
			Name:        strings.TrimSpace(m.Name),
			Description: m.Description,
			DueDate:     m.DueDate,
		})
	}
	if err := validateProject(op, p); err != nil {
		return nil, err
	}

	var created *models.Project
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		if err := requireObjectives(ctx, tx, s.store, op, p.ObjectiveIDs); err != nil {
			return err
		}
		for i := range p.Milestones {
			p.Milestones[i].ID = tx.NewID()
		}
		var err error
		created, err = s.store.Projects().Create(ctx, tx, p)
		return err
	})
	return created, err
}

// Get returns a live project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.store.Projects().Get(ctx, nil, id)
}

// Update applies patch. Changed objective references are re-checked.
func (s *ProjectService) Update(ctx context.Context, id string, patch ProjectPatch) (*models.Project, error) {
	const op = "project.update"
	return s.edit(ctx, op, id, func(tx *store.Tx, p *models.Project) error {
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if err := validateProject(op, p); err != nil {
			return err
		}
		if patch.ObjectiveIDs == nil {
			return nil
		}
		p.ObjectiveIDs = slices.Clone(patch.ObjectiveIDs)
		return requireObjectives(ctx, tx, s.store, op, p.ObjectiveIDs)
	})
}

// UpdateStatus moves a project to another status.
func (s *ProjectService) UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) (*models.Project, error) {
	const op = "project.update_status"
	if !models.IsValidProjectStatus(status) {
		return nil, apperr.Validation(op, "status", "invalid status: "+string(status))
	}
	return s.edit(ctx, op, id, func(_ *store.Tx, p *models.Project) error {
		p.Status = status
		return nil
	})
}

// AddMilestone appends a milestone and returns the updated project.
func (s *ProjectService) AddMilestone(ctx context.Context, id string, in MilestoneInput) (*models.Project, error) {
	const op = "project.add_milestone"
	m := models.Milestone{Name: strings.TrimSpace(in.Name), Description: in.Description, DueDate: in.DueDate}
	if err := validateMilestone(op, &m); err != nil {
		return nil, err
	}
	return s.edit(ctx, op, id, func(tx *store.Tx, p *models.Project) error {
		m.ID = tx.NewID()
		p.Milestones = append(p.Milestones, m)
		return nil
	})
}

// CompleteMilestone stamps a milestone with the unit's timestamp.
func (s *ProjectService) CompleteMilestone(ctx context.Context, id, milestoneID string) (*models.Project, error) {
	const op = "project.complete_milestone"
	return s.edit(ctx, op, id, func(tx *store.Tx, p *models.Project) error {
		m := p.Milestone(milestoneID)
		if m == nil {
			return apperr.NotFound(op, "milestone", milestoneID)
		}
		now := tx.Now()
		m.CompletedAt = &now
		return nil
	})
}

// RemoveMilestone drops a milestone. Unknown milestone ids leave the
// project as it was, apart from its version.
func (s *ProjectService) RemoveMilestone(ctx context.Context, id, milestoneID string) (*models.Project, error) {
	return s.edit(ctx, "project.remove_milestone", id, func(_ *store.Tx, p *models.Project) error {
		p.Milestones = slices.DeleteFunc(p.Milestones, func(m models.Milestone) bool { return m.ID == milestoneID })
		return nil
	})
}

// Delete soft-deletes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Projects().SoftDelete(ctx, nil, id)
	if err != nil {
		return err
	}
	s.logger.Info("project deleted", "project_id", deleted.ID, "space_id", deleted.SpaceID)
	return nil
}

// ListBySpace returns a space's live projects.
func (s *ProjectService) ListBySpace(ctx context.Context, spaceID string) ([]models.Project, error) {
	return s.store.Projects().List(ctx, nil, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnSpaceID, spaceID)},
	})
}

// ListByStatus returns the live projects in one status across spaces.
func (s *ProjectService) ListByStatus(ctx context.Context, status models.ProjectStatus) ([]models.Project, error) {
	return s.store.Projects().List(ctx, nil, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnStatus, string(status))},
	})
}

func (s *ProjectService) edit(ctx context.Context, op, id string, apply func(tx *store.Tx, p *models.Project) error) (*models.Project, error) {
	var updated *models.Project
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		updated, err = s.store.Projects().Update(ctx, tx, id, func(p *models.Project) error {
			return apply(tx, p)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("project updated", "op", op, "project_id", updated.ID, "version", updated.Version)
	return updated, nil
}
