package models

import (
	"fmt"
	"strings"
)

// ProgressStatus defines the lifecycle of a progress entry.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressAchieved   ProgressStatus = "achieved"
)

// ResourceType defines supported resource kinds.
type ResourceType string

const (
	ResourceLink     ResourceType = "link"
	ResourceFile     ResourceType = "file"
	ResourceImage    ResourceType = "image"
	ResourceVideo    ResourceType = "video"
	ResourceDocument ResourceType = "document"
)

// ProjectStatus defines the lifecycle of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

const (
	NameMaxLength        = 200
	DescriptionMaxLength = 2000
)

var validProgressStatuses = map[ProgressStatus]struct{}{
	ProgressNotStarted: {},
	ProgressInProgress: {},
	ProgressAchieved:   {},
}

var validResourceTypes = map[ResourceType]struct{}{
	ResourceLink:     {},
	ResourceFile:     {},
	ResourceImage:    {},
	ResourceVideo:    {},
	ResourceDocument: {},
}

var validProjectStatuses = map[ProjectStatus]struct{}{
	ProjectPlanning:  {},
	ProjectActive:    {},
	ProjectCompleted: {},
	ProjectArchived:  {},
}

var validActivityTypes = map[ActivityType]struct{}{
	ActivityObjectiveStarted:          {},
	ActivityObjectiveAchieved:         {},
	ActivityLessonStarted:             {},
	ActivityLessonCompleted:           {},
	ActivityProjectStarted:            {},
	ActivityProjectMilestoneCompleted: {},
	ActivityProjectCompleted:          {},
	ActivityResourceViewed:            {},
	ActivityCustom:                    {},
}

func IsValidProgressStatus(status ProgressStatus) bool {
	_, ok := validProgressStatuses[status]
	return ok
}

func IsValidResourceType(resourceType ResourceType) bool {
	_, ok := validResourceTypes[resourceType]
	return ok
}

func IsValidProjectStatus(status ProjectStatus) bool {
	_, ok := validProjectStatuses[status]
	return ok
}

func IsValidActivityType(activityType ActivityType) bool {
	_, ok := validActivityTypes[activityType]
	return ok
}

func ParseProgressStatus(raw string) (ProgressStatus, error) {
	value := ProgressStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidProgressStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

func ParseResourceType(raw string) (ResourceType, error) {
	value := ResourceType(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("type is required")
	}
	if !IsValidResourceType(value) {
		return "", fmt.Errorf("invalid type: %s", value)
	}
	return value, nil
}

// StoresBytes reports whether resources of this type keep their content in the blob store.
func (t ResourceType) StoresBytes() bool {
	return t != ResourceLink
}

func ParseProjectStatus(raw string) (ProjectStatus, error) {
	value := ProjectStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidProjectStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}
