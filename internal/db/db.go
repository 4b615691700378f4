package db

import (
	"fmt"

	"yamdb/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to postgres. TranslateError maps driver unique violations to
// gorm.ErrDuplicatedKey so the store can report conflicts uniformly.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return conn, nil
}

// Init opens the shared connection and migrates the schema.
func Init(dsn string, debug bool) error {
	conn, err := Open(dsn, debug)
	if err != nil {
		return err
	}
	log.Info().Msg("database connection established")

	if err := Migrate(conn); err != nil {
		return err
	}
	DB = conn
	return nil
}

// Migrate creates or updates every table. Join and child tables come after
// their parents so the foreign keys can be created.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.GenreTitle{},
		&models.Review{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info().Msg("database migration completed")
	return nil
}
