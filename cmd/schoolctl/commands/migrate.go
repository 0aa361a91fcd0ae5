package commands

import (
	"github.com/spf13/cobra"

	"github.com/k4sper1love/school-service/internal/repositories/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		if err := postgres.Migrate(cmd.Context(), env.db); err != nil {
			return err
		}
		env.logger.Info("Schema migrated")
		return nil
	},
}
