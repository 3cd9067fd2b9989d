package service

import (
	"context"
	"log/slog"
	"strings"

	"prolly/internal/models"
	"prolly/internal/store"
)

// CurriculumInput holds the fields of a new curriculum.
type CurriculumInput struct {
	SpaceID     string
	Name        string
	Description string
	Metadata    map[string]any
}

// CurriculumPatch changes the non-nil fields of a curriculum.
type CurriculumPatch struct {
	Name        *string
	Description *string
	Metadata    map[string]any
}

// CurriculumService manages curricula and their cascading deletes.
type CurriculumService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCurriculumService constructs a CurriculumService.
func NewCurriculumService(st *store.Store, logger *slog.Logger) *CurriculumService {
	return &CurriculumService{store: st, logger: logger}
}

// Create validates and stores a new curriculum.
func (s *CurriculumService) Create(ctx context.Context, in CurriculumInput) (*models.Curriculum, error) {
	c := &models.Curriculum{
		SpaceID:     strings.TrimSpace(in.SpaceID),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Metadata:    in.Metadata,
	}
	if err := validateCurriculum("curriculum.create", c); err != nil {
		return nil, err
	}
	return s.store.Curricula().Create(ctx, nil, c)
}

// Get returns a live curriculum.
func (s *CurriculumService) Get(ctx context.Context, id string) (*models.Curriculum, error) {
	return s.store.Curricula().Get(ctx, nil, id)
}

// Update applies patch. Invalid results leave the curriculum unchanged.
func (s *CurriculumService) Update(ctx context.Context, id string, patch CurriculumPatch) (*models.Curriculum, error) {
	return s.store.Curricula().Update(ctx, nil, id, func(c *models.Curriculum) error {
		if patch.Name != nil {
			c.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			c.Description = *patch.Description
		}
		if patch.Metadata != nil {
			c.Metadata = patch.Metadata
		}
		return validateCurriculum("curriculum.update", c)
	})
}

// Delete soft-deletes the curriculum together with its objectives and
// detaches its lessons.
func (s *CurriculumService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Curricula().CascadeDelete(ctx, nil, id, store.CurriculumCascade(s.store)...)
	if err != nil {
		return err
	}
	s.logger.Info("curriculum deleted", "curriculum_id", deleted.ID, "space_id", deleted.SpaceID)
	return nil
}

// ListBySpace returns a space's live curricula, newest first.
func (s *CurriculumService) ListBySpace(ctx context.Context, spaceID string) ([]models.Curriculum, error) {
	return s.store.Curricula().List(ctx, nil, store.Filter{
		Where:  []store.Cond{store.Eq(store.ColumnSpaceID, spaceID)},
		Newest: true,
	})
}
