// Package service holds the per-record business rules that sit on top of
// the entity store, the prerequisite graph and the blob store.
package service

import (
	"log/slog"

	"prolly/internal/blobstore"
	"prolly/internal/graph"
	"prolly/internal/store"
)

// Services bundles one service per record kind over shared dependencies.
type Services struct {
	Curricula  *CurriculumService
	Objectives *ObjectiveService
	Lessons    *LessonService
	Resources  *ResourceService
	Progress   *ProgressService
	Projects   *ProjectService
	Activities *ActivityService
}

// New wires every service. blobs may be nil when file resources are not
// used; a nil logger falls back to slog.Default.
func New(st *store.Store, blobs *blobstore.Store, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	validator := graph.NewValidator(st, logger)
	activities := NewActivityService(st)
	return &Services{
		Curricula:  NewCurriculumService(st, logger),
		Objectives: NewObjectiveService(st, validator, logger),
		Lessons:    NewLessonService(st),
		Resources:  NewResourceService(st, blobs, logger),
		Progress:   NewProgressService(st, activities),
		Projects:   NewProjectService(st, logger),
		Activities: activities,
	}
}
