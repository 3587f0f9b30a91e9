package database

import (
	"fmt"
	"strings"

	"wcperfit/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// New opens the store database. URLs prefixed with sqlite:// open a SQLite
// file (or ":memory:"); anything else is handed to the PostgreSQL driver.
func New(databaseURL string) (*Database, error) {
	return open(databaseURL, logger.Default.LogMode(logger.Warn))
}

// NewSilent is New without SQL logging, for tests and one-shot tools.
func NewSilent(databaseURL string) (*Database, error) {
	return open(databaseURL, logger.Default.LogMode(logger.Silent))
}

func open(databaseURL string, gormLogger logger.Interface) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: gormLogger,
		})
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: gormLogger,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates the tables this service owns. It is safe to
// run repeatedly; callers serialise it through the installer.
func (d *Database) Migrate() error {
	err := d.DB.AutoMigrate(
		&models.Option{},
		&models.APIKey{},
		&models.Webhook{},
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
