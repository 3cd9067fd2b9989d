package service

import (
	"context"
	"maps"
	"strings"

	"prolly/internal/apperr"
	"prolly/internal/models"
	"prolly/internal/store"
)

// DefaultActivityLimit bounds activity listings when the caller passes no
// limit.
const DefaultActivityLimit = 50

// ActivityInput holds the fields of a new activity entry.
type ActivityInput struct {
	UserID  string
	SpaceID string
	Type    models.ActivityType
	Payload map[string]any
	Refs    models.ActivityRefs
}

// ActivityService appends to and reads the activity log. Entries are never
// updated; Correct appends a superseding entry instead.
type ActivityService struct {
	store *store.Store
}

// NewActivityService constructs an ActivityService.
func NewActivityService(st *store.Store) *ActivityService {
	return &ActivityService{store: st}
}

// Log appends one entry.
func (s *ActivityService) Log(ctx context.Context, in ActivityInput) (*models.Activity, error) {
	return s.log(ctx, nil, "activity.log", in, "")
}

// Correct appends an entry that supersedes parentID. The user and space
// come from the parent; blank refs inherit the parent's.
func (s *ActivityService) Correct(ctx context.Context, parentID string, in ActivityInput) (*models.Activity, error) {
	const op = "activity.correct"
	var corrected *models.Activity
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		parent, err := s.store.Activities().Get(ctx, tx, parentID)
		if err != nil {
			return err
		}
		in.UserID = parent.UserID
		in.SpaceID = parent.SpaceID
		if in.Refs == (models.ActivityRefs{}) {
			in.Refs = parent.Refs
		}
		corrected, err = s.log(ctx, tx, op, in, parent.ID)
		return err
	})
	return corrected, err
}

// Get returns one entry.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	return s.store.Activities().Get(ctx, nil, id)
}

// Latest follows corrections from id to the newest entry superseding it.
func (s *ActivityService) Latest(ctx context.Context, id string) (*models.Activity, error) {
	var latest *models.Activity
	err := s.store.View(ctx, func(tx *store.Tx) error {
		current, err := s.store.Activities().Get(ctx, tx, id)
		if err != nil {
			return err
		}
		seen := map[string]bool{current.ID: true}
		for {
			next, err := s.store.Activities().List(ctx, tx, store.Filter{
				Where:  []store.Cond{store.Eq(store.ColumnParentID, current.ID)},
				Newest: true,
				Limit:  1,
			})
			if err != nil {
				return err
			}
			if len(next) == 0 || seen[next[0].ID] {
				latest = current
				return nil
			}
			current = &next[0]
			seen[current.ID] = true
		}
	})
	return latest, err
}

// ListByUser returns a user's entries, newest first.
func (s *ActivityService) ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	return s.list(ctx, store.Eq(store.ColumnUserID, userID), limit)
}

// ListBySpace returns a space's entries, newest first.
func (s *ActivityService) ListBySpace(ctx context.Context, spaceID string, limit int) ([]models.Activity, error) {
	return s.list(ctx, store.Eq(store.ColumnSpaceID, spaceID), limit)
}

// ListByObjective returns the entries that reference an objective, newest
// first.
func (s *ActivityService) ListByObjective(ctx context.Context, objectiveID string, limit int) ([]models.Activity, error) {
	return s.list(ctx, store.Eq(store.ColumnObjectiveID, objectiveID), limit)
}

func (s *ActivityService) list(ctx context.Context, cond store.Cond, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return s.store.Activities().List(ctx, nil, store.Filter{
		Where:  []store.Cond{cond},
		Newest: true,
		Limit:  limit,
	})
}

func (s *ActivityService) log(ctx context.Context, tx *store.Tx, op string, in ActivityInput, parentID string) (*models.Activity, error) {
	a := &models.Activity{
		UserID:   strings.TrimSpace(in.UserID),
		SpaceID:  strings.TrimSpace(in.SpaceID),
		Type:     in.Type,
		Payload:  maps.Clone(in.Payload),
		Refs:     in.Refs,
		ParentID: parentID,
	}
	if a.Payload == nil {
		a.Payload = map[string]any{}
	}
	if err := validateActivity(op, a); err != nil {
		return nil, err
	}
	return s.store.Activities().Create(ctx, tx, a)
}

// objectiveActivity logs a progress transition on an objective inside tx.
// The entry is filed under the space of the objective's curriculum; an
// objective whose curriculum is gone is not logged.
func (s *ActivityService) objectiveActivity(ctx context.Context, tx *store.Tx, op string, kind models.ActivityType, userID, objectiveID string) error {
	if s == nil {
		return nil
	}
	objective, err := s.store.Objectives().Get(ctx, tx, objectiveID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	curriculum, err := s.store.Curricula().Get(ctx, tx, objective.CurriculumID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	_, err = s.log(ctx, tx, op, ActivityInput{
		UserID:  userID,
		SpaceID: curriculum.SpaceID,
		Type:    kind,
		Payload: map[string]any{"name": objective.Name},
		Refs:    models.ActivityRefs{ObjectiveID: objective.ID},
	}, "")
	return err
}
