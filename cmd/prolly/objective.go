package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/graph"
	"prolly/internal/models"
	"prolly/internal/service"
)

func newObjectiveCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "objective",
		Aliases: []string{"obj"},
		Short:   "Manage objectives and their prerequisites",
	}
	cmd.AddCommand(
		newObjectiveCreateCmd(cfg, out),
		newObjectiveShowCmd(cfg, out),
		newObjectiveListCmd(cfg, out),
		newObjectivePrereqsCmd(cfg, out),
		newObjectiveOrderCmd(cfg, out),
		newObjectiveValidateCmd(cfg, out),
		newObjectiveDeleteCmd(cfg),
	)
	return cmd
}

func newObjectiveCreateCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var in service.ObjectiveInput
	var prereqs string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an objective",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			in.Prerequisites = splitCommaList(prereqs)
			return withApp(cfg, func(a *app) error {
				var created *models.Objective
				err := mutate(cmd.Context(), func() error {
					var err error
					created, err = a.services.Objectives.Create(cmd.Context(), in)
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, created, func() error { return writePlain("%s\n", created.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&in.CurriculumID, "curriculum", "", "curriculum id")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&prereqs, "prereqs", "", "comma-separated prerequisite objective ids")
	return cmd
}

func newObjectiveShowCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an objective",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				o, err := a.services.Objectives.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(out, o, func() error { return writeObjectiveDetail(o) })
			})
		},
	}
}

func newObjectiveListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var curriculumID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a curriculum's objectives in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				list, err := a.services.Objectives.ListByCurriculum(cmd.Context(), curriculumID)
				if err != nil {
					return err
				}
				return emit(out, list, func() error { return writeNamedList(list, objectiveLine) })
			})
		},
	}
	cmd.Flags().StringVar(&curriculumID, "curriculum", "", "curriculum id")
	return cmd
}

func newObjectivePrereqsCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "prereqs <id>",
		Short: "Show or replace an objective's prerequisites",
		Long:  "Without --set, prints the prerequisites. --set replaces them; --set \"\" clears them.",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				if !cmd.Flags().Changed("set") {
					o, err := a.services.Objectives.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return emit(out, o.Prerequisites, func() error { return writeNamedList(o.Prerequisites, identity) })
				}

				var updated *models.Objective
				err := mutate(cmd.Context(), func() error {
					var err error
					updated, err = a.services.Objectives.UpdatePrerequisites(cmd.Context(), args[0], splitCommaList(set))
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, updated, func() error { return writeObjectiveDetail(updated) })
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "comma-separated prerequisite objective ids")
	return cmd
}

func newObjectiveOrderCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var curriculumID string
	cmd := &cobra.Command{
		Use:   "order",
		Short: "List a curriculum's objectives with prerequisites first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				ordered, err := a.services.Objectives.TopologicalOrder(cmd.Context(), curriculumID)
				if err != nil {
					return err
				}
				return emit(out, ordered, func() error { return writeNamedList(ordered, objectiveLine) })
			})
		},
	}
	cmd.Flags().StringVar(&curriculumID, "curriculum", "", "curriculum id")
	return cmd
}

func newObjectiveValidateCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var curriculumID, objectiveID, prereqs string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a prerequisite set without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				result, err := a.services.Objectives.Validate(cmd.Context(), objectiveID, splitCommaList(prereqs), curriculumID)
				if err != nil {
					return err
				}
				return emit(out, result, func() error { return writeValidationResult(result) })
			})
		},
	}
	cmd.Flags().StringVar(&curriculumID, "curriculum", "", "curriculum id")
	cmd.Flags().StringVar(&objectiveID, "objective", "", "existing objective id; omit to check a new objective")
	cmd.Flags().StringVar(&prereqs, "prereqs", "", "comma-separated prerequisite objective ids")
	return cmd
}

func newObjectiveDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an objective and drop it from its siblings' prerequisites",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return mutate(cmd.Context(), func() error {
					return a.services.Objectives.Delete(cmd.Context(), args[0])
				})
			})
		},
	}
}

func objectiveLine(o models.Objective) string {
	if len(o.Prerequisites) == 0 {
		return fmt.Sprintf("%s  %s", o.ID, o.Name)
	}
	return fmt.Sprintf("%s  %s  (after %s)", o.ID, o.Name, strings.Join(o.Prerequisites, ", "))
}

func writeValidationResult(result graph.Result) error {
	if result.Valid {
		return writePlain("valid\n")
	}
	lines := []string{fmt.Sprintf("invalid (%s): %s", result.Reason, result.Message)}
	if len(result.CycleNodes) > 0 {
		lines = append(lines, "cycle: "+strings.Join(result.CycleNodes, " -> "))
	}
	return writeLines(lines)
}

func identity(s string) string { return s }
