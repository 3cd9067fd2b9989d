package models

import "time"

// Project is hands-on work in a space that exercises a set of objectives.
type Project struct {
	Entity       `yaml:",inline"`
	SpaceID      string        `json:"space_id" yaml:"space_id"`
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	ObjectiveIDs []string      `json:"objective_ids" yaml:"objective_ids"`
	Milestones   []Milestone   `json:"milestones" yaml:"milestones"`
	Status       ProjectStatus `json:"status" yaml:"status"`
}

// Milestone is a checkpoint inside a project.
type Milestone struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Milestone returns the milestone with the given id, or nil.
func (p *Project) Milestone(id string) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].ID == id {
			return &p.Milestones[i]
		}
	}
	return nil
}
