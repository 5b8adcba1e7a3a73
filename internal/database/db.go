package database

import (
	"fmt"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite driver
	"github.com/sirupsen/logrus"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open opens the database connection for the given driver
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	db.LogMode(false)
	return db, nil
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Dish{},
		&models.Order{},
		&models.OrderItem{},
	).Error
}

// Setup opens, migrates and seeds the database in one step
func Setup(driver, dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	seeded, err := SeedDishes(db, DefaultDishes())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed dishes: %w", err)
	}
	if seeded > 0 {
		log.WithField("dishes", seeded).Info("seeded default menu")
	}
	return db, nil
}

// Ping reports whether the connection is usable
func Ping(db *gorm.DB) bool {
	if db == nil {
		return false
	}
	return db.DB().Ping() == nil
}
