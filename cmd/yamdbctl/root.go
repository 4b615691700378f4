package main

import (
	"fmt"
	"os"

	"yamdb/internal/config"
	"yamdb/internal/db"
	"yamdb/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	dbURL   string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "YaMDb operator tool",
	Long: `yamdbctl runs the offline jobs of the YaMDb API against its database.

Commands:
  migrate          create or update the schema
  import           replace every table with the CSV export in a data directory
  createsuperuser  add an admin account with the superuser flag`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found")
		}
		level := "info"
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: "console"})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "database DSN (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log SQL statements")

	rootCmd.AddCommand(migrateCmd, importCmd, createSuperuserCmd)
}

// loadConfig reads settings without requiring the API-only ones.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	return cfg, nil
}

// connect opens the database and brings the schema up to date.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, conn, nil
}

// open connects to the configured database and brings the schema up to date.
func open(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("no database configured: pass --db or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.Database.URL, verbose || cfg.Database.Debug)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
