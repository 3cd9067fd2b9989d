package models

import "time"

// Progress tracks one user's state on one objective.
type Progress struct {
	Entity      `yaml:",inline"`
	UserID      string         `json:"user_id" yaml:"user_id"`
	ObjectiveID string         `json:"objective_id" yaml:"objective_id"`
	Status      ProgressStatus `json:"status" yaml:"status"`
	AchievedAt  *time.Time     `json:"achieved_at,omitempty" yaml:"achieved_at,omitempty"`
	Notes       string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ProgressStats counts a user's progress entries by status.
type ProgressStats struct {
	Total      int `json:"total" yaml:"total"`
	NotStarted int `json:"not_started" yaml:"not_started"`
	InProgress int `json:"in_progress" yaml:"in_progress"`
	Achieved   int `json:"achieved" yaml:"achieved"`
}
