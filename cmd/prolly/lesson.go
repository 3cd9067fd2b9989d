package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/models"
	"prolly/internal/service"
)

type lessonCreateOptions struct {
	in         service.LessonInput
	objectives string
	resources  string
	order      int
}

func newLessonCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Manage lessons",
	}
	cmd.AddCommand(
		newLessonCreateCmd(cfg, out),
		newLessonShowCmd(cfg, out),
		newLessonListCmd(cfg, out),
		newLessonDeleteCmd(cfg),
	)
	return cmd
}

func newLessonCreateCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	opts := &lessonCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a lesson",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := opts.in
			in.Name = strings.Join(args, " ")
			in.ObjectiveIDs = splitCommaList(opts.objectives)
			in.ResourceIDs = splitCommaList(opts.resources)
			if cmd.Flags().Changed("order") {
				in.Order = &opts.order
			}
			return withApp(cfg, func(a *app) error {
				var created *models.Lesson
				err := mutate(cmd.Context(), func() error {
					var err error
					created, err = a.services.Lessons.Create(cmd.Context(), in)
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, created, func() error { return writePlain("%s\n", created.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&opts.in.SpaceID, "space", "", "space id")
	cmd.Flags().StringVar(&opts.in.CurriculumID, "curriculum", "", "curriculum id")
	cmd.Flags().StringVar(&opts.in.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.in.Content, "content", "", "lesson body")
	cmd.Flags().StringVar(&opts.objectives, "objectives", "", "comma-separated objective ids")
	cmd.Flags().StringVar(&opts.resources, "resources", "", "comma-separated resource ids")
	cmd.Flags().IntVar(&opts.order, "order", 0, "position within the curriculum")
	return cmd
}

func newLessonShowCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a lesson",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				l, err := a.services.Lessons.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(out, l, func() error { return writeLessonDetail(l) })
			})
		},
	}
}

func newLessonListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var spaceID, curriculumID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lessons by space or curriculum",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (spaceID == "") == (curriculumID == "") {
				return errors.New("exactly one of --space or --curriculum is required")
			}
			return withApp(cfg, func(a *app) error {
				var list []models.Lesson
				var err error
				if curriculumID != "" {
					list, err = a.services.Lessons.ListByCurriculum(cmd.Context(), curriculumID)
				} else {
					list, err = a.services.Lessons.ListBySpace(cmd.Context(), spaceID)
				}
				if err != nil {
					return err
				}
				return emit(out, list, func() error {
					return writeNamedList(list, func(l models.Lesson) string {
						return fmt.Sprintf("%s  %s", l.ID, l.Name)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&spaceID, "space", "", "space id")
	cmd.Flags().StringVar(&curriculumID, "curriculum", "", "curriculum id")
	return cmd
}

func newLessonDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lesson",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return mutate(cmd.Context(), func() error {
					return a.services.Lessons.Delete(cmd.Context(), args[0])
				})
			})
		},
	}
}
