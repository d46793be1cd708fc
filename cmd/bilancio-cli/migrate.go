package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite database schema",
		Long: `Show or apply the schema migrations of the SQLite storage collaborator.

The server applies pending migrations on startup as well.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd, args); err != nil {
				return err
			}
			if cfg.DataBackend != "sqlite" {
				return errors.New("migrations require DATA_BACKEND=sqlite")
			}
			return nil
		},
	}
	cmd.AddCommand(migrateStatusCmd())
	cmd.AddCommand(migrateUpCmd())
	return cmd
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("failed to read migration version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database: %s\nversion:  %d\ndirty:    %t\n", cfg.SQLiteDBPath, version, dirty)
			return nil
		},
	}
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.Info("Starting database migration", "database", cfg.SQLiteDBPath)
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			version, _, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database at version %d\n", version)
			return nil
		},
	}
}
