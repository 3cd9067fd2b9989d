package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

// FieldError is one failed field rule.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	return nil
}

func maxLength(value string, max int, field string) error {
	if utf8.RuneCountInString(value) > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max)}
	}
	return nil
}

// validateFields collects every failing rule. The returned validation error
// names the first failing field; the full list is reachable via Unwrap.
func validateFields(op string, checks ...error) error {
	var result *multierror.Error
	for _, err := range checks {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result.ErrorOrNil() == nil {
		return nil
	}

	appErr := &apperr.Error{Kind: apperr.KindValidation, Op: op, Err: result}
	var first *FieldError
	if errors.As(result.Errors[0], &first) {
		appErr.Field = first.Field
		appErr.Message = first.Message
	}
	return appErr
}

// FieldErrors returns every field rule a validation error carries.
func FieldErrors(err error) []*FieldError {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return nil
	}
	out := make([]*FieldError, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

func validateCurriculum(op string, c *models.Curriculum) error {
	return validateFields(op,
		required(c.Name, "name"),
		maxLength(c.Name, models.NameMaxLength, "name"),
		required(c.SpaceID, "space_id"),
		maxLength(c.Description, models.DescriptionMaxLength, "description"),
	)
}

func validateObjective(op string, o *models.Objective) error {
	return validateFields(op,
		required(o.Name, "name"),
		maxLength(o.Name, models.NameMaxLength, "name"),
		required(o.CurriculumID, "curriculum_id"),
		maxLength(o.Description, models.DescriptionMaxLength, "description"),
	)
}

func validateLesson(op string, l *models.Lesson) error {
	return validateFields(op,
		required(l.Name, "name"),
		maxLength(l.Name, models.NameMaxLength, "name"),
		required(l.SpaceID, "space_id"),
		maxLength(l.Description, models.DescriptionMaxLength, "description"),
	)
}

func validateProject(op string, p *models.Project) error {
	checks := []error{
		required(p.Name, "name"),
		maxLength(p.Name, models.NameMaxLength, "name"),
		required(p.SpaceID, "space_id"),
		maxLength(p.Description, models.DescriptionMaxLength, "description"),
	}
	if !models.IsValidProjectStatus(p.Status) {
		checks = append(checks, &FieldError{Field: "status", Message: fmt.Sprintf("invalid status: %s", p.Status)})
	}
	for i := range p.Milestones {
		checks = append(checks, milestoneChecks(&p.Milestones[i])...)
	}
	return validateFields(op, checks...)
}

func validateMilestone(op string, m *models.Milestone) error {
	return validateFields(op, milestoneChecks(m)...)
}

func milestoneChecks(m *models.Milestone) []error {
	return []error{
		required(m.Name, "milestones.name"),
		maxLength(m.Name, models.NameMaxLength, "milestones.name"),
	}
}

func validateActivity(op string, a *models.Activity) error {
	checks := []error{
		required(a.UserID, "user_id"),
		required(a.SpaceID, "space_id"),
		required(string(a.Type), "type"),
	}
	if a.Type != "" && !models.IsValidActivityType(a.Type) {
		checks = append(checks, &FieldError{Field: "type", Message: fmt.Sprintf("invalid type: %s", a.Type)})
	}
	return validateFields(op, checks...)
}

func validateResource(op string, r *models.Resource) error {
	return validateFields(op, resourceChecks(r)...)
}

func resourceChecks(r *models.Resource) []error {
	checks := []error{
		required(r.Name, "name"),
		maxLength(r.Name, models.NameMaxLength, "name"),
		required(r.SpaceID, "space_id"),
		required(string(r.Type), "type"),
	}
	if r.Type != "" && !models.IsValidResourceType(r.Type) {
		checks = append(checks, &FieldError{Field: "type", Message: fmt.Sprintf("invalid type: %s", r.Type)})
	}
	return checks
}
