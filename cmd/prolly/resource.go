package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/models"
	"prolly/internal/service"
)

func newResourceCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"res"},
		Short:   "Manage links and files attached to a space",
	}
	cmd.AddCommand(
		newResourceLinkCmd(cfg, out),
		newResourceFileCmd(cfg, out),
		newResourceShowCmd(cfg, out),
		newResourceListCmd(cfg, out),
		newResourceDeleteCmd(cfg),
	)
	return cmd
}

func newResourceLinkCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var in service.ResourceInput
	cmd := &cobra.Command{
		Use:   "link <name>",
		Short: "Add a link resource",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			return withApp(cfg, func(a *app) error {
				var created *models.Resource
				err := mutate(cmd.Context(), func() error {
					var err error
					created, err = a.services.Resources.CreateLink(cmd.Context(), in)
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
	cmd.Flags().StringVar(&in.URL, "url", "", "link target")
	return cmd
}

func newResourceFileCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var in service.ResourceInput
	var resourceType string
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Add a file resource; identical files share stored bytes",
		Args:  requireExactlyArgs(1, "file path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if in.Name == "" {
				in.Name = filepath.Base(path)
			}
			if in.MimeType == "" {
				in.MimeType = mime.TypeByExtension(filepath.Ext(path))
			}
			if resourceType != "" {
				parsed, err := models.ParseResourceType(resourceType)
				if err != nil {
					return err
				}
				in.Type = parsed
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cfg, func(a *app) error {
				created, err := a.services.Resources.CreateFile(cmd.Context(), in, f)
				if err != nil {
					return err
				}
				return emit(out, created, func() error { return writePlain("%s\n", created.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&in.SpaceID, "space", "", "space id")
	cmd.Flags().StringVar(&in.Name, "name", "", "resource name (default: file name)")
	cmd.Flags().StringVar(&in.MimeType, "mime", "", "content type (default: guessed from extension)")
	cmd.Flags().StringVar(&resourceType, "type", "", "file, image, video or document")
	return cmd
}

func newResourceShowCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a resource",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				r, err := a.services.Resources.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(out, r, func() error { return writeResourceDetail(r) })
			})
		},
	}
}

func newResourceListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var spaceID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resources in a space, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				list, err := a.services.Resources.ListBySpace(cmd.Context(), spaceID)
				if err != nil {
					return err
				}
				return emit(out, list, func() error {
					return writeNamedList(list, func(r models.Resource) string {
						return fmt.Sprintf("%s  [%s] %s", r.ID, r.Type, r.Name)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&spaceID, "space", "", "space id")
	return cmd
}

func newResourceDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resource and release its stored bytes",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return mutate(cmd.Context(), func() error {
					return a.services.Resources.Delete(cmd.Context(), args[0])
				})
			})
		},
	}
}
