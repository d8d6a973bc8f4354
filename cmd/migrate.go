package cmd

import (
	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run gorm auto migrations against the configured database and exit`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	if err := database.Migrate(db); err != nil {
		return err
	}

	log.Info().Msg("migrations completed")
	return nil
}
