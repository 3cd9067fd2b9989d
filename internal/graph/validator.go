package graph

import (
	"context"
	"log/slog"

	"prolly/internal/apperr"
	"prolly/internal/models"
	"prolly/internal/store"
)

// Validator runs graph checks against the live objectives held in a store.
// It keeps no state between calls.
type Validator struct {
	store  *store.Store
	logger *slog.Logger
}

// NewValidator creates a Validator. A nil logger falls back to slog.Default.
func NewValidator(st *store.Store, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: st, logger: logger}
}

// Validate loads the curriculum's live objectives and checks the proposed
// prerequisites of objectiveID against them. Pass the tx of the unit that
// will write the prerequisites so the check and the write see one snapshot.
func (v *Validator) Validate(ctx context.Context, tx *store.Tx, objectiveID string, proposed []string, curriculumID string) (Result, error) {
	live, err := v.liveObjectives(ctx, tx, curriculumID)
	if err != nil {
		return Result{}, err
	}
	result := Validate(objectiveID, proposed, live)
	if !result.Valid {
		v.logger.Debug("prerequisites rejected",
			"objective_id", objectiveID,
			"curriculum_id", curriculumID,
			"reason", result.Reason,
			"cycle", result.CycleNodes,
		)
	}
	return result, nil
}

// TopologicalOrder returns the curriculum's live objectives in dependency order.
func (v *Validator) TopologicalOrder(ctx context.Context, tx *store.Tx, curriculumID string) ([]models.Objective, error) {
	live, err := v.liveObjectives(ctx, tx, curriculumID)
	if err != nil {
		return nil, err
	}
	ordered, err := TopologicalOrder(live)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			v.logger.Error("prerequisite graph invariant violated",
				"curriculum_id", curriculumID,
				"objectives", len(live),
				"error", err,
			)
		}
		return nil, err
	}
	return ordered, nil
}

func (v *Validator) liveObjectives(ctx context.Context, tx *store.Tx, curriculumID string) ([]models.Objective, error) {
	return v.store.Objectives().List(ctx, tx, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnCurriculumID, curriculumID)},
	})
}
