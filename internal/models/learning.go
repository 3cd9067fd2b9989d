package models

// Curriculum groups objectives inside a space.
type Curriculum struct {
	Entity      `yaml:",inline"`
	SpaceID     string         `json:"space_id" yaml:"space_id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Objective is a node in a curriculum's prerequisite graph. Prerequisites
// point from this objective to the objectives it depends on.
type Objective struct {
	Entity        `yaml:",inline"`
	CurriculumID  string         `json:"curriculum_id" yaml:"curriculum_id"`
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Prerequisites []string       `json:"prerequisites" yaml:"prerequisites"`
	Metadata      map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Lesson is teaching content that may reference a curriculum, objectives and resources.
type Lesson struct {
	Entity       `yaml:",inline"`
	SpaceID      string   `json:"space_id" yaml:"space_id"`
	CurriculumID string   `json:"curriculum_id,omitempty" yaml:"curriculum_id,omitempty"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Content      string   `json:"content,omitempty" yaml:"content,omitempty"`
	ObjectiveIDs []string `json:"objective_ids" yaml:"objective_ids"`
	ResourceIDs  []string `json:"resource_ids" yaml:"resource_ids"`
	Order        *int     `json:"order,omitempty" yaml:"order,omitempty"`
}

// Resource is either an external link or a file whose bytes live in the blob store.
type Resource struct {
	Entity   `yaml:",inline"`
	SpaceID  string         `json:"space_id" yaml:"space_id"`
	Name     string         `json:"name" yaml:"name"`
	Type     ResourceType   `json:"type" yaml:"type"`
	URL      string         `json:"url,omitempty" yaml:"url,omitempty"`
	BlobID   string         `json:"blob_id,omitempty" yaml:"blob_id,omitempty"`
	MimeType string         `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
