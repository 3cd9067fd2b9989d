package main

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"prolly/internal/apperr"
	"prolly/internal/config"
)

func newBlobCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Inspect and maintain the content-addressed blob store",
	}
	cmd.AddCommand(
		newBlobPutCmd(cfg, out),
		newBlobGetCmd(cfg),
		newBlobReleaseCmd(cfg),
		newBlobSweepCmd(cfg, out),
	)
	return cmd
}

func newBlobPutCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var mimeType string
	cmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Store a file and take one reference on it",
		Args:  requireExactlyArgs(1, "file path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(args[0]))
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cfg, func(a *app) error {
				blob, err := a.blobs.Put(cmd.Context(), f, mimeType)
				if err != nil {
					return err
				}
				return emit(out, blob, func() error { return writeBlobDetail(blob) })
			})
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "content type (default: guessed from extension)")
	return cmd
}

func newBlobGetCmd(cfg *config.Config) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Write a blob's bytes to stdout or a file",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				content, err := a.blobs.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if content == nil {
					return apperr.NotFound("blob.get", "blob", args[0])
				}
				defer content.Close()

				var dst io.Writer = stdout
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					dst = f
				}
				_, err = io.Copy(dst, content)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newBlobReleaseCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "release <id>",
		Short: "Drop one reference on a blob",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return mutate(cmd.Context(), func() error {
					return a.blobs.Release(cmd.Context(), args[0])
				})
			})
		},
	}
}

func newBlobSweepCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove unreferenced blobs older than the grace window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				result, err := a.blobs.Sweep(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				return emit(out, result, func() error { return writePlain("%s\n", result) })
			})
		},
	}
}
