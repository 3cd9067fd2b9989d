package service

import (
	"context"
	"slices"
	"strings"

	"prolly/internal/apperr"
	"prolly/internal/models"
	"prolly/internal/store"
)

// LessonInput holds the fields of a new lesson.
type LessonInput struct {
	SpaceID      string
	CurriculumID string
	Name         string
	Description  string
	Content      string
	ObjectiveIDs []string
	ResourceIDs  []string
	Order        *int
}

// LessonPatch changes the non-nil fields of a lesson.
type LessonPatch struct {
	Name         *string
	Description  *string
	Content      *string
	CurriculumID *string
	ObjectiveIDs []string
	ResourceIDs  []string
	Order        *int
}

// LessonService manages lessons.
type LessonService struct {
	store *store.Store
}

// NewLessonService constructs a LessonService.
func NewLessonService(st *store.Store) *LessonService {
	return &LessonService{store: st}
}

// Create validates and stores a lesson. Every referenced objective must be
// live.
func (s *LessonService) Create(ctx context.Context, in LessonInput) (*models.Lesson, error) {
	const op = "lesson.create"
	l := &models.Lesson{
		SpaceID:      strings.TrimSpace(in.SpaceID),
		CurriculumID: strings.TrimSpace(in.CurriculumID),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Content:      in.Content,
		ObjectiveIDs: nonNil(in.ObjectiveIDs),
		ResourceIDs:  nonNil(in.ResourceIDs),
		Order:        in.Order,
	}
	if err := validateLesson(op, l); err != nil {
		return nil, err
	}

	var created *models.Lesson
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		if err := s.checkReferences(ctx, tx, op, l); err != nil {
			return err
		}
		var err error
		created, err = s.store.Lessons().Create(ctx, tx, l)
		return err
	})
	return created, err
}

// Get returns a live lesson.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	return s.store.Lessons().Get(ctx, nil, id)
}

// Update applies patch, re-checking any changed references.
func (s *LessonService) Update(ctx context.Context, id string, patch LessonPatch) (*models.Lesson, error) {
	const op = "lesson.update"
	var updated *models.Lesson
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		updated, err = s.store.Lessons().Update(ctx, tx, id, func(l *models.Lesson) error {
			if patch.Name != nil {
				l.Name = strings.TrimSpace(*patch.Name)
			}
			if patch.Description != nil {
				l.Description = *patch.Description
			}
			if patch.Content != nil {
				l.Content = *patch.Content
			}
			if patch.CurriculumID != nil {
				l.CurriculumID = strings.TrimSpace(*patch.CurriculumID)
			}
			if patch.ObjectiveIDs != nil {
				l.ObjectiveIDs = slices.Clone(patch.ObjectiveIDs)
			}
			if patch.ResourceIDs != nil {
				l.ResourceIDs = slices.Clone(patch.ResourceIDs)
			}
			if patch.Order != nil {
				order := *patch.Order
				l.Order = &order
			}
			if err := validateLesson(op, l); err != nil {
				return err
			}
			if patch.CurriculumID == nil && patch.ObjectiveIDs == nil {
				return nil
			}
			return s.checkReferences(ctx, tx, op, l)
		})
		return err
	})
	return updated, err
}

// Delete soft-deletes a lesson.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	_, err := s.store.Lessons().SoftDelete(ctx, nil, id)
	return err
}

// ListByCurriculum returns the live lessons attached to a curriculum.
func (s *LessonService) ListByCurriculum(ctx context.Context, curriculumID string) ([]models.Lesson, error) {
	return s.store.Lessons().List(ctx, nil, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnCurriculumID, curriculumID)},
	})
}

// ListBySpace returns a space's live lessons.
func (s *LessonService) ListBySpace(ctx context.Context, spaceID string) ([]models.Lesson, error) {
	return s.store.Lessons().List(ctx, nil, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnSpaceID, spaceID)},
	})
}

func (s *LessonService) checkReferences(ctx context.Context, tx *store.Tx, op string, l *models.Lesson) error {
	if l.CurriculumID != "" {
		if _, err := s.store.Curricula().Get(ctx, tx, l.CurriculumID); err != nil {
			return err
		}
	}
	return requireObjectives(ctx, tx, s.store, op, l.ObjectiveIDs)
}

// requireObjectives fails validation unless every id names a live
// objective.
func requireObjectives(ctx context.Context, tx *store.Tx, st *store.Store, op string, ids []string) error {
	for _, id := range ids {
		if _, err := st.Objectives().Get(ctx, tx, id); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Validation(op, "objective_ids", "One or more objectives do not exist")
			}
			return err
		}
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
