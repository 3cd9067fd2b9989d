package main

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"prolly/internal/config"
	"prolly/internal/store"

	_ "modernc.org/sqlite"
)

func newMigrateCmd(cfg *config.Config, out *outputMode) *cobra.Command {
	var dryRun bool
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect || dryRun {
				plan, err := readMigrationPlan(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				return emit(out, plan, func() error { return writeMigrationPlan(plan) })
			}

			// Open applies every pending migration.
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}

			plan, err := readMigrationPlan(cfg.DBPath)
			if err != nil {
				return err
			}
			return emit(out, plan, func() error {
				return writePlain("Schema at version %d.\n", plan.CurrentVersion)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")

	return cmd
}

func readMigrationPlan(path string) (*store.MigrationStatus, error) {
	db, err := openRawDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return store.MigrationPlan(db)
}

func writeMigrationPlan(plan *store.MigrationStatus) error {
	lines := []string{
		fmt.Sprintf("Current version: %d", plan.CurrentVersion),
		fmt.Sprintf("Available version: %d", plan.AvailableVersion),
	}
	if len(plan.Pending) == 0 {
		lines = append(lines, "No pending migrations.")
	} else {
		lines = append(lines, fmt.Sprintf("Pending migrations: %d", len(plan.Pending)))
		for _, m := range plan.Pending {
			lines = append(lines, fmt.Sprintf("  %d: %s", m.Version, m.Description))
		}
	}
	return writeLines(lines)
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}
