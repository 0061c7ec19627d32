package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/repository/postgres"
)

var createDB bool

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Apply the schema files embedded in the binary that are not yet recorded in
schema_migrations. Each file runs in its own transaction.

Examples:
  marketctl migrate               # Apply pending migrations
  marketctl migrate --create-db   # Create DB_NAME first when it does not exist`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StorageDriver != config.StoragePostgres {
			return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.StoragePostgres)
		}

		if createDB {
			created, err := postgres.EnsureDatabase(ctx, cfg.Database)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Database '%s' created.\n", cfg.Database.DBName)
			}
		}

		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&createDB, "create-db", false, "Create the database if it does not exist")
}
