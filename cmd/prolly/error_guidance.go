package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prolly/internal/apperr"
	"prolly/internal/service"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		lines = append(lines, "hint: the command was interrupted before it finished; no partial write was kept.")
		return uniqueLines(lines)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return uniqueLines(lines)
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		fields := service.FieldErrors(err)
		if len(fields) > 1 {
			for _, field := range fields {
				lines = append(lines, fmt.Sprintf("  %s: %s", field.Field, field.Message))
			}
		}
	case apperr.KindNotFound:
		lines = append(lines, "hint: check the id; deleted records are not shown.")
	case apperr.KindDAGCycle:
		if len(appErr.CycleNodes) > 0 {
			lines = append(lines, "cycle: "+strings.Join(appErr.CycleNodes, " -> "))
		}
		lines = append(lines, "hint: drop one of the listed prerequisites to break the cycle.")
	case apperr.KindTransient:
		lines = append(lines, "hint: the database stayed busy through every retry; run the command again.")
	case apperr.KindStorageFull:
		lines = append(lines, "hint: free disk space where the database and blob root live.")
	case apperr.KindConstraint:
		lines = append(lines, "hint: a referenced record is missing or a unique value is already taken.")
	case apperr.KindDB, apperr.KindInternal:
		lines = append(lines, "hint: rerun with --log-level debug for details.")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
