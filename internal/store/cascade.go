package store

import (
	"slices"

	"prolly/internal/models"
)

// CascadeRule is a secondary effect of deleting a record. It runs inside the
// deleting unit and receives a copy of the record as deleted.
type CascadeRule[T any] func(tx *Tx, deleted *T) error

// SoftDeleteWhere soft-deletes every live child whose column equals value(deleted).
func SoftDeleteWhere[P any, C any, PC interface {
	*C
	Record
}](children *Collection[C, PC], column string, value func(*P) string) CascadeRule[P] {
	return func(tx *Tx, deleted *P) error {
		live, err := children.list(tx, Filter{Where: []Cond{Eq(column, value(deleted))}})
		if err != nil {
			return err
		}
		for i := range live {
			if _, err := children.mutate(tx, PC(&live[i]).Meta().ID, nil, true); err != nil {
				return err
			}
		}
		return nil
	}
}

// UpdateWhere applies patch to every live child whose column equals
// value(deleted). Children the patch reports as unchanged keep their version.
func UpdateWhere[P any, C any, PC interface {
	*C
	Record
}](children *Collection[C, PC], column string, value func(*P) string, patch func(child *C, deleted *P) bool) CascadeRule[P] {
	return func(tx *Tx, deleted *P) error {
		live, err := children.list(tx, Filter{Where: []Cond{Eq(column, value(deleted))}})
		if err != nil {
			return err
		}
		for i := range live {
			if !patch(&live[i], deleted) {
				continue
			}
			apply := func(child *C) error {
				patch(child, deleted)
				return nil
			}
			if _, err := children.mutate(tx, PC(&live[i]).Meta().ID, apply, false); err != nil {
				return err
			}
		}
		return nil
	}
}

// CurriculumCascade soft-deletes a curriculum's objectives and detaches its
// lessons. Lessons themselves survive.
func CurriculumCascade(s *Store) []CascadeRule[models.Curriculum] {
	curriculumID := func(c *models.Curriculum) string { return c.ID }
	return []CascadeRule[models.Curriculum]{
		SoftDeleteWhere(s.Objectives(), ColumnCurriculumID, curriculumID),
		UpdateWhere(s.Lessons(), ColumnCurriculumID, curriculumID, func(l *models.Lesson, _ *models.Curriculum) bool {
			l.CurriculumID = ""
			return true
		}),
	}
}

// ObjectiveCascade strips a deleted objective from its siblings'
// prerequisites. Dependents are not deleted.
func ObjectiveCascade(s *Store) []CascadeRule[models.Objective] {
	curriculumID := func(o *models.Objective) string { return o.CurriculumID }
	return []CascadeRule[models.Objective]{
		UpdateWhere(s.Objectives(), ColumnCurriculumID, curriculumID, func(sibling *models.Objective, deleted *models.Objective) bool {
			pruned := slices.DeleteFunc(slices.Clone(sibling.Prerequisites), func(id string) bool { return id == deleted.ID })
			if len(pruned) == len(sibling.Prerequisites) {
				return false
			}
			sibling.Prerequisites = pruned
			return true
		}),
	}
}
