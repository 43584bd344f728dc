package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite opens a gorm handle on path and migrates the given models.
// Unique violations surface as gorm.ErrDuplicatedKey.
func OpenSQLite(path string, models ...any) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrating sqlite %s: %w", path, err)
	}

	return db, nil
}
