package store

import "prolly/internal/models"

// Reference columns that List filters may use.
const (
	ColumnSpaceID      = "space_id"
	ColumnCurriculumID = "curriculum_id"
	ColumnObjectiveID  = "objective_id"
	ColumnUserID       = "user_id"
	ColumnBlobID       = "blob_id"
	ColumnStatus       = "status"
	ColumnParentID     = "parent_id"
)

var curriculumSchema = Schema[models.Curriculum]{
	Table:  "curricula",
	Entity: "curriculum",
	Refs: []Ref[models.Curriculum]{
		{Column: ColumnSpaceID, Value: func(c *models.Curriculum) string { return c.SpaceID }},
	},
}

var objectiveSchema = Schema[models.Objective]{
	Table:  "objectives",
	Entity: "objective",
	Refs: []Ref[models.Objective]{
		{Column: ColumnCurriculumID, Value: func(o *models.Objective) string { return o.CurriculumID }},
	},
}

var lessonSchema = Schema[models.Lesson]{
	Table:  "lessons",
	Entity: "lesson",
	Refs: []Ref[models.Lesson]{
		{Column: ColumnSpaceID, Value: func(l *models.Lesson) string { return l.SpaceID }},
		{Column: ColumnCurriculumID, Value: func(l *models.Lesson) string { return l.CurriculumID }},
	},
}

var resourceSchema = Schema[models.Resource]{
	Table:  "resources",
	Entity: "resource",
	Refs: []Ref[models.Resource]{
		{Column: ColumnSpaceID, Value: func(r *models.Resource) string { return r.SpaceID }},
		{Column: ColumnBlobID, Value: func(r *models.Resource) string { return r.BlobID }},
	},
}

var progressSchema = Schema[models.Progress]{
	Table:  "progress",
	Entity: "progress",
	Refs: []Ref[models.Progress]{
		{Column: ColumnUserID, Value: func(p *models.Progress) string { return p.UserID }},
		{Column: ColumnObjectiveID, Value: func(p *models.Progress) string { return p.ObjectiveID }},
	},
}

var projectSchema = Schema[models.Project]{
	Table:  "projects",
	Entity: "project",
	Refs: []Ref[models.Project]{
		{Column: ColumnSpaceID, Value: func(p *models.Project) string { return p.SpaceID }},
		{Column: ColumnStatus, Value: func(p *models.Project) string { return string(p.Status) }},
	},
}

var activitySchema = Schema[models.Activity]{
	Table:  "activities",
	Entity: "activity",
	Refs: []Ref[models.Activity]{
		{Column: ColumnUserID, Value: func(a *models.Activity) string { return a.UserID }},
		{Column: ColumnSpaceID, Value: func(a *models.Activity) string { return a.SpaceID }},
		{Column: ColumnObjectiveID, Value: func(a *models.Activity) string { return a.Refs.ObjectiveID }},
		{Column: ColumnParentID, Value: func(a *models.Activity) string { return a.ParentID }},
	},
}

func (s *Store) Curricula() *Collection[models.Curriculum, *models.Curriculum] {
	return NewCollection[models.Curriculum](s, curriculumSchema)
}

func (s *Store) Objectives() *Collection[models.Objective, *models.Objective] {
	return NewCollection[models.Objective](s, objectiveSchema)
}

func (s *Store) Lessons() *Collection[models.Lesson, *models.Lesson] {
	return NewCollection[models.Lesson](s, lessonSchema)
}

func (s *Store) Resources() *Collection[models.Resource, *models.Resource] {
	return NewCollection[models.Resource](s, resourceSchema)
}

func (s *Store) Progress() *Collection[models.Progress, *models.Progress] {
	return NewCollection[models.Progress](s, progressSchema)
}

func (s *Store) Projects() *Collection[models.Project, *models.Project] {
	return NewCollection[models.Project](s, projectSchema)
}

func (s *Store) Activities() *Collection[models.Activity, *models.Activity] {
	return NewCollection[models.Activity](s, activitySchema)
}
