package models

// ActivityType names what happened in an activity entry.
type ActivityType string

const (
	ActivityObjectiveStarted          ActivityType = "objective.started"
	ActivityObjectiveAchieved         ActivityType = "objective.achieved"
	ActivityLessonStarted             ActivityType = "lesson.started"
	ActivityLessonCompleted           ActivityType = "lesson.completed"
	ActivityProjectStarted            ActivityType = "project.started"
	ActivityProjectMilestoneCompleted ActivityType = "project.milestone_completed"
	ActivityProjectCompleted          ActivityType = "project.completed"
	ActivityResourceViewed            ActivityType = "resource.viewed"
	ActivityCustom                    ActivityType = "custom"
)

// ActivityRefs points an activity at the records it concerns.
type ActivityRefs struct {
	ObjectiveID string `json:"objective_id,omitempty" yaml:"objective_id,omitempty"`
	LessonID    string `json:"lesson_id,omitempty" yaml:"lesson_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	ResourceID  string `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
}

// Activity is an append-only log entry. A correction is a new entry whose
// ParentID names the entry it supersedes.
type Activity struct {
	Entity   `yaml:",inline"`
	UserID   string         `json:"user_id" yaml:"user_id"`
	SpaceID  string         `json:"space_id" yaml:"space_id"`
	Type     ActivityType   `json:"type" yaml:"type"`
	Payload  map[string]any `json:"payload" yaml:"payload"`
	Refs     ActivityRefs   `json:"refs" yaml:"refs"`
	ParentID string         `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}
