package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/models"
	"prolly/internal/service"
)

func newProjectCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and their milestones",
	}
	cmd.AddCommand(
		newProjectCreateCmd(cfg, out),
		newProjectShowCmd(cfg, out),
		newProjectListCmd(cfg, out),
		newProjectStatusCmd(cfg, out),
		newProjectMilestoneCmd(cfg, out),
		newProjectDeleteCmd(cfg),
	)
	return cmd
}

func newProjectCreateCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var in service.ProjectInput
	var objectives, milestones, status string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			in.ObjectiveIDs = splitCommaList(objectives)
			in.Status = models.ProjectStatus(strings.ToLower(strings.TrimSpace(status)))
			for _, name := range splitCommaList(milestones) {
				in.Milestones = append(in.Milestones, service.MilestoneInput{Name: name})
			}
			return runProjectEdit(cmd, cfg, out, func(a *app) (*models.Project, error) {
				return a.services.Projects.Create(cmd.Context(), in)
			})
		},
	}
	cmd.Flags().StringVar(&in.SpaceID, "space", "", "space id")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&objectives, "objectives", "", "comma-separated objective ids")
	cmd.Flags().StringVar(&milestones, "milestones", "", "comma-separated milestone names")
	cmd.Flags().StringVar(&status, "status", "", "planning, active, completed or archived")
	return cmd
}

func newProjectShowCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				p, err := a.services.Projects.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(out, p, func() error { return writeProjectDetail(p) })
			})
		},
	}
}

func newProjectListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var spaceID, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects by space or status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (spaceID == "") == (status == "") {
				return fmt.Errorf("exactly one of --space or --status is required")
			}
			return withApp(cfg, func(a *app) error {
				var list []models.Project
				var err error
				if spaceID != "" {
					list, err = a.services.Projects.ListBySpace(cmd.Context(), spaceID)
				} else {
					var parsed models.ProjectStatus
					if parsed, err = models.ParseProjectStatus(status); err != nil {
						return err
					}
					list, err = a.services.Projects.ListByStatus(cmd.Context(), parsed)
				}
				if err != nil {
					return err
				}
				return emit(out, list, func() error {
					return writeNamedList(list, func(p models.Project) string {
						return fmt.Sprintf("%s  %-9s  %s", p.ID, p.Status, p.Name)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&spaceID, "space", "", "space id")
	cmd.Flags().StringVar(&status, "status", "", "project status")
	return cmd
}

func newProjectStatusCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a project to another status",
		Args:  requireExactlyArgs(2, "project id and status are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			return runProjectEdit(cmd, cfg, out, func(a *app) (*models.Project, error) {
				return a.services.Projects.UpdateStatus(cmd.Context(), args[0], status)
			})
		},
	}
}

func newProjectMilestoneCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Add, complete or remove project milestones",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <project-id> <name>",
			Short: "Append a milestone",
			Args:  requireAtLeastArgs(2, "project id and milestone name are required"),
			RunE: func(cmd *cobra.Command, args []string) error {
				in := service.MilestoneInput{Name: strings.Join(args[1:], " ")}
				return runProjectEdit(cmd, cfg, out, func(a *app) (*models.Project, error) {
					return a.services.Projects.AddMilestone(cmd.Context(), args[0], in)
				})
			},
		},
		&cobra.Command{
			Use:   "complete <project-id> <milestone-id>",
			Short: "Mark a milestone complete",
			Args:  requireExactlyArgs(2, "project id and milestone id are required"),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProjectEdit(cmd, cfg, out, func(a *app) (*models.Project, error) {
					return a.services.Projects.CompleteMilestone(cmd.Context(), args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "remove <project-id> <milestone-id>",
			Short: "Remove a milestone",
			Args:  requireExactlyArgs(2, "project id and milestone id are required"),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProjectEdit(cmd, cfg, out, func(a *app) (*models.Project, error) {
					return a.services.Projects.RemoveMilestone(cmd.Context(), args[0], args[1])
				})
			},
		},
	)
	return cmd
}

func newProjectDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return mutate(cmd.Context(), func() error {
					return a.services.Projects.Delete(cmd.Context(), args[0])
				})
			})
		},
	}
}

// runProjectEdit runs one retried project mutation and prints the result.
func runProjectEdit(cmd *cobra.Command, cfg *config.Config, out *outputMode, edit func(*app) (*models.Project, error)) error {
	return withApp(cfg, func(a *app) error {
		var p *models.Project
		err := mutate(cmd.Context(), func() error {
			var err error
			p, err = edit(a)
			return err
		})
		if err != nil {
			return err
		}
		return emit(out, p, func() error { return writeProjectDetail(p) })
	})
}
