package service

import (
	"context"
	"strings"

	"prolly/internal/apperr"
	"prolly/internal/models"
	"prolly/internal/store"
)

// ProgressService tracks users' progress on objectives and enforces the
// prerequisite gate on starting one. Starting and achieving an objective
// are recorded in the activity log in the same unit.
type ProgressService struct {
	store      *store.Store
	activities *ActivityService
}

// NewProgressService constructs a ProgressService. activities may be nil.
func NewProgressService(st *store.Store, activities *ActivityService) *ProgressService {
	return &ProgressService{store: st, activities: activities}
}

// GetOrCreate returns the user's progress on an objective, creating a
// not_started entry the first time.
func (s *ProgressService) GetOrCreate(ctx context.Context, userID, objectiveID string) (*models.Progress, error) {
	var p *models.Progress
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		p, err = s.getOrCreate(ctx, tx, "progress.get_or_create", userID, objectiveID)
		return err
	})
	return p, err
}

// Find returns the user's live progress on an objective, or nil.
func (s *ProgressService) Find(ctx context.Context, userID, objectiveID string) (*models.Progress, error) {
	return s.find(ctx, nil, userID, objectiveID)
}

// Get returns a live progress entry by id.
func (s *ProgressService) Get(ctx context.Context, id string) (*models.Progress, error) {
	return s.store.Progress().Get(ctx, nil, id)
}

// CanStart reports whether every prerequisite of the objective is achieved
// by the user. A missing objective cannot be started.
func (s *ProgressService) CanStart(ctx context.Context, userID, objectiveID string) (bool, error) {
	var unmet []string
	err := s.store.View(ctx, func(tx *store.Tx) error {
		objective, err := s.store.Objectives().Get(ctx, tx, objectiveID)
		if err != nil {
			return err
		}
		unmet, err = s.unmetPrerequisites(ctx, tx, userID, objective)
		return err
	})
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(unmet) == 0, nil
}

// Start moves the user's progress on an objective to in_progress. It fails
// with a validation error naming the prerequisites the user has not yet
// achieved. Entries already in progress or achieved are returned unchanged.
func (s *ProgressService) Start(ctx context.Context, userID, objectiveID string) (*models.Progress, error) {
	const op = "progress.start"
	var p *models.Progress
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		objective, err := s.store.Objectives().Get(ctx, tx, objectiveID)
		if err != nil {
			return err
		}
		unmet, err := s.unmetPrerequisites(ctx, tx, userID, objective)
		if err != nil {
			return err
		}
		if len(unmet) > 0 {
			return apperr.Validation(op, "prerequisites", "Prerequisites not achieved: "+strings.Join(unmet, ", "))
		}

		p, err = s.getOrCreate(ctx, tx, op, userID, objectiveID)
		if err != nil || p.Status != models.ProgressNotStarted {
			return err
		}
		p, err = s.store.Progress().Update(ctx, tx, p.ID, func(p *models.Progress) error {
			p.Status = models.ProgressInProgress
			return nil
		})
		if err != nil {
			return err
		}
		return s.activities.objectiveActivity(ctx, tx, op, models.ActivityObjectiveStarted, p.UserID, objectiveID)
	})
	return p, err
}

// Achieve marks the objective achieved for the user. notes, when non-nil,
// replaces the entry's notes.
func (s *ProgressService) Achieve(ctx context.Context, userID, objectiveID string, notes *string) (*models.Progress, error) {
	const op = "progress.achieve"
	var p *models.Progress
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		var err error
		p, err = s.getOrCreate(ctx, tx, op, userID, objectiveID)
		if err != nil || p.Status == models.ProgressAchieved {
			return err
		}
		p, err = s.store.Progress().Update(ctx, tx, p.ID, func(p *models.Progress) error {
			now := tx.Now()
			p.Status = models.ProgressAchieved
			p.AchievedAt = &now
			if notes != nil {
				p.Notes = *notes
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.activities.objectiveActivity(ctx, tx, op, models.ActivityObjectiveAchieved, p.UserID, objectiveID)
	})
	return p, err
}

// Reset moves a progress entry back to not_started.
func (s *ProgressService) Reset(ctx context.Context, id string) (*models.Progress, error) {
	return s.store.Progress().Update(ctx, nil, id, func(p *models.Progress) error {
		p.Status = models.ProgressNotStarted
		p.AchievedAt = nil
		return nil
	})
}

// UpdateNotes replaces a progress entry's notes.
func (s *ProgressService) UpdateNotes(ctx context.Context, id, notes string) (*models.Progress, error) {
	return s.store.Progress().Update(ctx, nil, id, func(p *models.Progress) error {
		p.Notes = notes
		return nil
	})
}

// ListByUser returns a user's live progress entries.
func (s *ProgressService) ListByUser(ctx context.Context, userID string) ([]models.Progress, error) {
	return s.store.Progress().List(ctx, nil, store.Filter{
		Where: []store.Cond{store.Eq(store.ColumnUserID, userID)},
	})
}

// ListByStatus returns a user's live progress entries in one status.
func (s *ProgressService) ListByStatus(ctx context.Context, userID string, status models.ProgressStatus) ([]models.Progress, error) {
	entries, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, p := range entries {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// Stats counts a user's live progress entries by status.
func (s *ProgressService) Stats(ctx context.Context, userID string) (models.ProgressStats, error) {
	var stats models.ProgressStats
	entries, err := s.ListByUser(ctx, userID)
	if err != nil {
		return stats, err
	}
	stats.Total = len(entries)
	for _, p := range entries {
		switch p.Status {
		case models.ProgressNotStarted:
			stats.NotStarted++
		case models.ProgressInProgress:
			stats.InProgress++
		case models.ProgressAchieved:
			stats.Achieved++
		}
	}
	return stats, nil
}

func (s *ProgressService) find(ctx context.Context, tx *store.Tx, userID, objectiveID string) (*models.Progress, error) {
	found, err := s.store.Progress().List(ctx, tx, store.Filter{
		Where: []store.Cond{
			store.Eq(store.ColumnUserID, userID),
			store.Eq(store.ColumnObjectiveID, objectiveID),
		},
		Limit: 1,
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (s *ProgressService) getOrCreate(ctx context.Context, tx *store.Tx, op, userID, objectiveID string) (*models.Progress, error) {
	userID = strings.TrimSpace(userID)
	if err := validateFields(op, required(userID, "user_id"), required(objectiveID, "objective_id")); err != nil {
		return nil, err
	}
	existing, err := s.find(ctx, tx, userID, objectiveID)
	if err != nil || existing != nil {
		return existing, err
	}
	if _, err := s.store.Objectives().Get(ctx, tx, objectiveID); err != nil {
		return nil, err
	}
	return s.store.Progress().Create(ctx, tx, &models.Progress{
		UserID:      userID,
		ObjectiveID: objectiveID,
		Status:      models.ProgressNotStarted,
	})
}

// unmetPrerequisites lists, once each and in stored order, the objective's
// prerequisites the user has not achieved.
func (s *ProgressService) unmetPrerequisites(ctx context.Context, tx *store.Tx, userID string, objective *models.Objective) ([]string, error) {
	var unmet []string
	seen := make(map[string]bool, len(objective.Prerequisites))
	for _, prereq := range objective.Prerequisites {
		if seen[prereq] {
			continue
		}
		seen[prereq] = true
		p, err := s.find(ctx, tx, userID, prereq)
		if err != nil {
			return nil, err
		}
		if p == nil || p.Status != models.ProgressAchieved {
			unmet = append(unmet, prereq)
		}
	}
	return unmet, nil
}
