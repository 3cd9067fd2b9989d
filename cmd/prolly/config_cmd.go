package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prolly/internal/config"
)

func newConfigCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration",
	}

	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigSetCmd(),
		newConfigListCmd(cfg, out),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a config key",
		Args:  requireExactlyArgs(1, "key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.IsAllowedKey(args[0]) {
				return fmt.Errorf("unknown key: %s (allowed: %v)", args[0], config.AllowedKeys())
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a config key to the project or global file",
		Args:  requireExactlyArgs(2, "key and value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathFn := config.ProjectPath
			if global {
				pathFn = config.GlobalPath
			}
			path, err := pathFn()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, args[0], args[1]); err != nil {
				return err
			}
			return writePlain("%s = %s (%s)\n", args[0], args[1], path)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to the global config (~/.prolly.toml)")
	return cmd
}

func newConfigListCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every effective config value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := config.AllowedKeys()
			values := make(map[string]string, len(keys))
			for _, key := range keys {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
			}
			return emit(out, values, func() error {
				for _, key := range keys {
					if err := writePlain("%s = %s\n", key, values[key]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
