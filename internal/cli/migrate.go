package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pizzeria_back_end/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Creates or updates the Postgres schema and, when Scylla is
configured, the audit keyspace and table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log.Info().Msg("Connecting to database...")
		db, err := database.ConnectPostgres(cfg.Database, cfg.Environment)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		log.Info().Msg("Running database migrations...")
		if err := database.AutoMigrate(db); err != nil {
			return err
		}

		if len(cfg.Scylla.Hosts) > 0 {
			if err := database.MigrateAudit(cfg.Scylla); err != nil {
				return err
			}
		}
		log.Info().Msg("Database migrations completed successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
