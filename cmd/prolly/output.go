package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"prolly/internal/format"
	"prolly/internal/models"
)

var (
	stdout          io.Writer        = os.Stdout
	outputFormatter format.Formatter = format.JSONFormatter{}
)

func writeStructured(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeLines(lines []string) error {
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

// emit writes payload in the structured format when one was requested, and
// falls back to plain otherwise.
func emit(out *outputMode, payload any, plain func() error) error {
	if out.structured() {
		return writeStructured(payload)
	}
	return plain()
}

func entityLines(e models.Entity) []string {
	return []string{
		fmt.Sprintf("id: %s", e.ID),
		fmt.Sprintf("version: %d", e.Version),
		fmt.Sprintf("created_at: %s", formatTime(e.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(e.UpdatedAt)),
	}
}

func writeCurriculumDetail(c *models.Curriculum) error {
	lines := entityLines(c.Entity)
	lines = append(lines,
		fmt.Sprintf("space_id: %s", c.SpaceID),
		fmt.Sprintf("name: %s", c.Name),
	)
	if c.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", c.Description))
	}
	return writeLines(lines)
}

func writeObjectiveDetail(o *models.Objective) error {
	lines := entityLines(o.Entity)
	lines = append(lines,
		fmt.Sprintf("curriculum_id: %s", o.CurriculumID),
		fmt.Sprintf("name: %s", o.Name),
	)
	if o.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", o.Description))
	}
	if len(o.Prerequisites) > 0 {
		lines = append(lines, "prerequisites:")
		for _, id := range o.Prerequisites {
			lines = append(lines, "  - "+id)
		}
	}
	return writeLines(lines)
}

func writeLessonDetail(l *models.Lesson) error {
	lines := entityLines(l.Entity)
	lines = append(lines,
		fmt.Sprintf("space_id: %s", l.SpaceID),
		fmt.Sprintf("name: %s", l.Name),
	)
	if l.CurriculumID != "" {
		lines = append(lines, fmt.Sprintf("curriculum_id: %s", l.CurriculumID))
	}
	if l.Order != nil {
		lines = append(lines, fmt.Sprintf("order: %d", *l.Order))
	}
	if len(l.ObjectiveIDs) > 0 {
		lines = append(lines, fmt.Sprintf("objectives: %s", strings.Join(l.ObjectiveIDs, ", ")))
	}
	if len(l.ResourceIDs) > 0 {
		lines = append(lines, fmt.Sprintf("resources: %s", strings.Join(l.ResourceIDs, ", ")))
	}
	if l.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", l.Description))
	}
	return writeLines(lines)
}

func writeResourceDetail(r *models.Resource) error {
	lines := entityLines(r.Entity)
	lines = append(lines,
		fmt.Sprintf("space_id: %s", r.SpaceID),
		fmt.Sprintf("name: %s", r.Name),
		fmt.Sprintf("type: %s", r.Type),
	)
	if r.URL != "" {
		lines = append(lines, fmt.Sprintf("url: %s", r.URL))
	}
	if r.BlobID != "" {
		lines = append(lines, fmt.Sprintf("blob_id: %s", r.BlobID), fmt.Sprintf("mime_type: %s", r.MimeType))
	}
	return writeLines(lines)
}

func writeProgressDetail(p *models.Progress) error {
	lines := entityLines(p.Entity)
	lines = append(lines,
		fmt.Sprintf("user_id: %s", p.UserID),
		fmt.Sprintf("objective_id: %s", p.ObjectiveID),
		fmt.Sprintf("status: %s", p.Status),
	)
	if p.AchievedAt != nil {
		lines = append(lines, fmt.Sprintf("achieved_at: %s", formatTime(*p.AchievedAt)))
	}
	if p.Notes != "" {
		lines = append(lines, fmt.Sprintf("notes: %s", p.Notes))
	}
	return writeLines(lines)
}

func writeProjectDetail(p *models.Project) error {
	lines := entityLines(p.Entity)
	lines = append(lines,
		fmt.Sprintf("space_id: %s", p.SpaceID),
		fmt.Sprintf("name: %s", p.Name),
		fmt.Sprintf("status: %s", p.Status),
	)
	if len(p.ObjectiveIDs) > 0 {
		lines = append(lines, fmt.Sprintf("objectives: %s", strings.Join(p.ObjectiveIDs, ", ")))
	}
	if len(p.Milestones) > 0 {
		lines = append(lines, "milestones:")
		for _, m := range p.Milestones {
			mark := " "
			if m.CompletedAt != nil {
				mark = "x"
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s  %s", mark, m.ID, m.Name))
		}
	}
	return writeLines(lines)
}

func writeBlobDetail(b *models.Blob) error {
	return writeLines([]string{
		fmt.Sprintf("id: %s", b.ID),
		fmt.Sprintf("checksum: %s", b.Checksum),
		fmt.Sprintf("mime_type: %s", b.MimeType),
		fmt.Sprintf("size: %d", b.Size),
		fmt.Sprintf("ref_count: %d", b.RefCount),
	})
}

// writeNamedList prints one "id name" line per record.
func writeNamedList[T any](items []T, line func(T) string) error {
	for _, item := range items {
		if err := writePlain("%s\n", line(item)); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
