package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/madetoorder/storefront/app"
	"github.com/madetoorder/storefront/models"
)

var (
	// Global flags
	envFile string
	dbURL   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront catalog service",
	Long: `Storefront serves the category and product catalog from a session-wide
in-memory cache kept consistent with the remote store.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides DATABASE_URL)")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, inspectCmd)
}

// setup loads configuration and builds the logger.
func setup() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return cfg, app.NewLogger(cfg), nil
}

func openDB(cfg *app.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := models.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := models.Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}
