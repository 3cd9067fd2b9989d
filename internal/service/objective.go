package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"prolly/internal/apperr"
	"prolly/internal/graph"
	"prolly/internal/models"
	"prolly/internal/store"
)

// ObjectiveInput holds the fields of a new objective.
type ObjectiveInput struct {
	CurriculumID  string
	Name          string
	Description   string
	Prerequisites []string
	Metadata      map[string]any
}

// ObjectivePatch changes the non-nil fields of an objective. Prerequisites
// change only through UpdatePrerequisites, and the curriculum never changes.
type ObjectivePatch struct {
	Name        *string
	Description *string
	Metadata    map[string]any
}

// ObjectiveService manages objectives and keeps their prerequisite graph acyclic.
type ObjectiveService struct {
	store     *store.Store
	validator *graph.Validator
	logger    *slog.Logger
}

// NewObjectiveService constructs an ObjectiveService.
func NewObjectiveService(st *store.Store, validator *graph.Validator, logger *slog.Logger) *ObjectiveService {
	return &ObjectiveService{store: st, validator: validator, logger: logger}
}

// Create validates the fields and the proposed prerequisites, then stores the
// objective. The graph check and the insert share one atomic unit.
func (s *ObjectiveService) Create(ctx context.Context, in ObjectiveInput) (*models.Objective, error) {
	const op = "objective.create"
	o := &models.Objective{
		CurriculumID:  strings.TrimSpace(in.CurriculumID),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Prerequisites: slices.Clone(in.Prerequisites),
		Metadata:      in.Metadata,
	}
	if o.Prerequisites == nil {
		o.Prerequisites = []string{}
	}
	if err := validateObjective(op, o); err != nil {
		return nil, err
	}

	var created *models.Objective
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		if _, err := s.store.Curricula().Get(ctx, tx, o.CurriculumID); err != nil {
			return err
		}
		if len(o.Prerequisites) > 0 {
			if err := s.checkPrerequisites(ctx, tx, op, graph.NewObjective, o.Prerequisites, o.CurriculumID); err != nil {
				return err
			}
		}
		var err error
		created, err = s.store.Objectives().Create(ctx, tx, o)
		return err
	})
	return created, err
}

// Get returns a live objective.
func (s *ObjectiveService) Get(ctx context.Context, id string) (*models.Objective, error) {
	return s.store.Objectives().Get(ctx, nil, id)
}

// Update applies patch. Invalid results leave the objective unchanged.
func (s *ObjectiveService) Update(ctx context.Context, id string, patch ObjectivePatch) (*models.Objective, error) {
	return s.store.Objectives().Update(ctx, nil, id, func(o *models.Objective) error {
		if patch.Name != nil {
			o.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			o.Description = *patch.Description
		}
		if patch.Metadata != nil {
			o.Metadata = patch.Metadata
		}
		return validateObjective("objective.update", o)
	})
}

// UpdatePrerequisites replaces an objective's prerequisites after checking
// that the graph stays acyclic. No other unit can change the curriculum's
// objectives between the check and the write.
func (s *ObjectiveService) UpdatePrerequisites(ctx context.Context, id string, prerequisites []string) (*models.Objective, error) {
	const op = "objective.update_prerequisites"
	proposed := slices.Clone(prerequisites)
	if proposed == nil {
		proposed = []string{}
	}

	var updated *models.Objective
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		existing, err := s.store.Objectives().Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.checkPrerequisites(ctx, tx, op, id, proposed, existing.CurriculumID); err != nil {
			return err
		}
		updated, err = s.store.Objectives().Update(ctx, tx, id, func(o *models.Objective) error {
			o.Prerequisites = proposed
			return nil
		})
		return err
	})
	return updated, err
}

// Validate reports whether objectiveID could take the proposed
// prerequisites, without writing anything.
func (s *ObjectiveService) Validate(ctx context.Context, objectiveID string, proposed []string, curriculumID string) (graph.Result, error) {
	return s.validator.Validate(ctx, nil, objectiveID, proposed, curriculumID)
}

// Delete soft-deletes the objective and removes it from its siblings'
// prerequisites. Dependents stay live.
func (s *ObjectiveService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Objectives().CascadeDelete(ctx, nil, id, store.ObjectiveCascade(s.store)...)
	if err != nil {
		return err
	}
	s.logger.Info("objective deleted", "objective_id", deleted.ID, "curriculum_id", deleted.CurriculumID)
	return nil
}

// ListByCurriculum returns a curriculum's live objectives in creation order.
func (s *ObjectiveService) ListByCurriculum(ctx context.Context, curriculumID string) ([]models.Objective, error) {
	return s.store.Objectives().List(ctx, nil, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnCurriculumID, curriculumID)},
	})
}

// TopologicalOrder returns a curriculum's live objectives with every
// prerequisite before its dependents.
func (s *ObjectiveService) TopologicalOrder(ctx context.Context, curriculumID string) ([]models.Objective, error) {
	return s.validator.TopologicalOrder(ctx, nil, curriculumID)
}

func (s *ObjectiveService) checkPrerequisites(ctx context.Context, tx *store.Tx, op, objectiveID string, proposed []string, curriculumID string) error {
	result, err := s.validator.Validate(ctx, tx, objectiveID, proposed, curriculumID)
	if err != nil {
		return err
	}
	if result.Valid {
		return nil
	}
	rejected := apperr.Cycle(op, result.Message, result.CycleNodes)
	rejected.Field = "prerequisites"
	return rejected
}
