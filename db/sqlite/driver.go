package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by SQLite. TranslateError is enabled so
// unique-constraint violations surface as gorm.ErrDuplicatedKey, which the
// relationship store maps to its Conflict error kind.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

// OpenMemory creates an isolated in-memory database, used by tests.
func OpenMemory() (*gorm.DB, error) {
	return Open(":memory:")
}
