package commands

import (
	"github.com/spf13/cobra"

	"github.com/madetoorder/storefront/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the categories and products tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := models.Open(cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		if err := models.Migrate(db); err != nil {
			return err
		}
		logger.Info("migration complete")
		return nil
	},
}
