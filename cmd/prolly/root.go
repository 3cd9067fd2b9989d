package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/format"
)

type outputMode struct {
	json bool
	yaml bool
}

func (m *outputMode) structured() bool {
	return m.json || m.yaml
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	out := &outputMode{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           "prolly",
		Short:         "Prolly tracks curricula, learning objectives and progress in a local database",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return selectOutputFormatter(out)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&out.json, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVar(&out.yaml, "yaml", false, "output YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCurriculumCmd(cfg, out),
		newObjectiveCmd(cfg, out),
		newLessonCmd(cfg, out),
		newResourceCmd(cfg, out),
		newProgressCmd(cfg, out),
		newProjectCmd(cfg, out),
		newActivityCmd(cfg, out),
		newBlobCmd(cfg, out),
		newConfigCmd(cfg, out),
		newMigrateCmd(cfg, out),
	)

	return cmd
}

func selectOutputFormatter(out *outputMode) error {
	switch {
	case out.json && out.yaml:
		return errors.New("--json and --yaml cannot be combined")
	case out.yaml:
		outputFormatter = format.YAMLFormatter{}
	default:
		outputFormatter = format.JSONFormatter{}
	}
	return nil
}
