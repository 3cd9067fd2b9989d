package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/models"
	"prolly/internal/service"
)

func newCurriculumCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "curriculum",
		Aliases: []string{"cur"},
		Short:   "Manage curricula",
	}
	cmd.AddCommand(
		newCurriculumCreateCmd(cfg, out),
		newCurriculumShowCmd(cfg, out),
		newCurriculumListCmd(cfg, out),
		newCurriculumDeleteCmd(cfg),
	)
	return cmd
}

func newCurriculumCreateCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var in service.CurriculumInput
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a curriculum",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			return withApp(cfg, func(a *app) error {
				var created *models.Curriculum
				err := mutate(cmd.Context(), func() error {
					var err error
					created, err = a.services.Curricula.Create(cmd.Context(), in)
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, created, func() error { return writePlain("%s\n", created.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&in.SpaceID, "space", "", "space id")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	return cmd
}

func newCurriculumShowCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a curriculum",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				c, err := a.services.Curricula.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(out, c, func() error { return writeCurriculumDetail(c) })
			})
		},
	}
}

func newCurriculumListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var spaceID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List curricula in a space, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				list, err := a.services.Curricula.ListBySpace(cmd.Context(), spaceID)
				if err != nil {
					return err
				}
				return emit(out, list, func() error {
					return writeNamedList(list, func(c models.Curriculum) string {
						return fmt.Sprintf("%s  %s", c.ID, c.Name)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&spaceID, "space", "", "space id")
	return cmd
}

func newCurriculumDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a curriculum and its objectives, detaching its lessons",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return mutate(cmd.Context(), func() error {
					return a.services.Curricula.Delete(cmd.Context(), args[0])
				})
			})
		},
	}
}
