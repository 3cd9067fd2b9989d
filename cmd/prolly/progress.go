package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prolly/internal/apperr"
	"prolly/internal/config"
	"prolly/internal/models"
)

const userEnvKey = "PROLLY_USER"

func newProgressCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Track a user's progress on objectives",
	}
	cmd.PersistentFlags().StringVar(&userID, "user", "", "user id (default: $"+userEnvKey+")")
	cmd.AddCommand(
		newProgressStartCmd(cfg, out, &userID),
		newProgressAchieveCmd(cfg, out, &userID),
		newProgressResetCmd(cfg, out, &userID),
		newProgressShowCmd(cfg, out, &userID),
		newProgressStatsCmd(cfg, out, &userID),
	)
	return cmd
}

func newProgressStartCmd(cfg *config.Config, out *outputMode, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start <objective-id>",
		Short: "Start an objective once its prerequisites are achieved",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				var p *models.Progress
				err := mutate(cmd.Context(), func() error {
					var err error
					p, err = a.services.Progress.Start(cmd.Context(), resolveUser(*userID), args[0])
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, p, func() error { return writeProgressDetail(p) })
			})
		},
	}
}

func newProgressAchieveCmd(cfg *config.Config, out *outputMode, userID *string) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "achieve <objective-id>",
		Short: "Mark an objective achieved",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			var notesArg *string
			if cmd.Flags().Changed("notes") {
				notesArg = &notes
			}
			return withApp(cfg, func(a *app) error {
				var p *models.Progress
				err := mutate(cmd.Context(), func() error {
					var err error
					p, err = a.services.Progress.Achieve(cmd.Context(), resolveUser(*userID), args[0], notesArg)
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, p, func() error { return writeProgressDetail(p) })
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes to keep with the entry")
	return cmd
}

func newProgressResetCmd(cfg *config.Config, out *outputMode, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <objective-id>",
		Short: "Return an objective to not_started",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := resolveUser(*userID)
			return withApp(cfg, func(a *app) error {
				var p *models.Progress
				err := mutate(cmd.Context(), func() error {
					existing, err := a.services.Progress.Find(cmd.Context(), user, args[0])
					if err != nil {
						return err
					}
					if existing == nil {
						return apperr.NotFound("progress.reset", "progress for objective", args[0])
					}
					p, err = a.services.Progress.Reset(cmd.Context(), existing.ID)
					return err
				})
				if err != nil {
					return err
				}
				return emit(out, p, func() error { return writeProgressDetail(p) })
			})
		},
	}
}

func newProgressShowCmd(cfg *config.Config, out *outputMode, userID *string) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "show [objective-id]",
		Short: "Show one progress entry, or all of a user's entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := resolveUser(*userID)
			return withApp(cfg, func(a *app) error {
				if len(args) == 1 {
					p, err := a.services.Progress.Find(cmd.Context(), user, args[0])
					if err != nil {
						return err
					}
					if p == nil {
						return apperr.NotFound("progress.show", "progress for objective", args[0])
					}
					return emit(out, p, func() error { return writeProgressDetail(p) })
				}

				var list []models.Progress
				var err error
				if status != "" {
					parsed, parseErr := models.ParseProgressStatus(status)
					if parseErr != nil {
						return parseErr
					}
					list, err = a.services.Progress.ListByStatus(cmd.Context(), user, parsed)
				} else {
					list, err = a.services.Progress.ListByUser(cmd.Context(), user)
				}
				if err != nil {
					return err
				}
				return emit(out, list, func() error {
					return writeNamedList(list, func(p models.Progress) string {
						return fmt.Sprintf("%s  %s", p.ObjectiveID, p.Status)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only entries with this status")
	return cmd
}

func newProgressStatsCmd(cfg *config.Config, out *outputMode, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count a user's entries by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				stats, err := a.services.Progress.Stats(cmd.Context(), resolveUser(*userID))
				if err != nil {
					return err
				}
				return emit(out, stats, func() error {
					return writeLines([]string{
						fmt.Sprintf("total: %d", stats.Total),
						fmt.Sprintf("not_started: %d", stats.NotStarted),
						fmt.Sprintf("in_progress: %d", stats.InProgress),
						fmt.Sprintf("achieved: %d", stats.Achieved),
					})
				})
			})
		},
	}
}

func resolveUser(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(userEnvKey))
}
