package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/projecthub/internal/database"
	"github.com/yukikurage/projecthub/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update tables and indexes for every model, then exit.

Examples:
  # Migrate the configured database
  DB_DRIVER=postgres DB_HOST=db projecthub migrate`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	db, err := database.Connect(cfg.DB, false, logger)
	if err != nil {
		return err
	}

	return database.MigrateDatabase(db, logger)
}
