package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/models"
	"prolly/internal/service"
)

func newActivityCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Read the activity log",
	}
	cmd.AddCommand(newActivityListCmd(cfg, out))
	return cmd
}

func newActivityListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var userID, spaceID, objectiveID string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent activity for a user, space or objective",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spaceID != "" && objectiveID != "" {
				return fmt.Errorf("--space and --objective cannot be combined")
			}
			user := resolveUser(userID)
			if spaceID == "" && objectiveID == "" && user == "" {
				return fmt.Errorf("one of --user, --space or --objective is required")
			}
			return withApp(cfg, func(a *app) error {
				activities := a.services.Activities
				var list []models.Activity
				var err error
				switch {
				case objectiveID != "":
					list, err = activities.ListByObjective(cmd.Context(), objectiveID, limit)
				case spaceID != "":
					list, err = activities.ListBySpace(cmd.Context(), spaceID, limit)
				default:
					list, err = activities.ListByUser(cmd.Context(), user, limit)
				}
				if err != nil {
					return err
				}
				return emit(out, list, func() error {
					return writeNamedList(list, func(e models.Activity) string {
						return fmt.Sprintf("%s  %-26s  %s", formatTime(e.CreatedAt), e.Type, e.UserID)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (default: $"+userEnvKey+")")
	cmd.Flags().StringVar(&spaceID, "space", "", "space id")
	cmd.Flags().StringVar(&objectiveID, "objective", "", "objective id")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultActivityLimit, "maximum entries, newest first")
	return cmd
}
