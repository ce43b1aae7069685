package cmd

import (
	"fmt"

	"fleet-manager/core/database"
	"fleet-manager/feature/fleet/models"

	"github.com/spf13/cobra"
)

// migrateCmd creates or updates the schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if err := database.Migrate(rt.db, models.All()...); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		rt.logger.Info("Schema migrated")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
