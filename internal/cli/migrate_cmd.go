package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	database "github.com/FACorreiaa/devcamper-api/app/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			dbConfig, err := database.NewDatabaseConfig(cfg, logger)
			if err != nil {
				return err
			}
			if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			dbConfig, err := database.NewDatabaseConfig(cfg, logger)
			if err != nil {
				return err
			}
			if err = database.RollbackMigrations(dbConfig.ConnectionURL, steps, logger); err != nil {
				return err
			}
			logger.Info("Migrations rolled back", slog.Int("steps", steps))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}
