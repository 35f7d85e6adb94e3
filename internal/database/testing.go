package database

import (
	"testing"

	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite store closed at the end of t.
// A single connection keeps every query on the same in-memory database.
func NewTestDB(t testing.TB) *DatabasePool {
	t.Helper()
	pool, err := NewDatabasePool(&PoolConfig{
		Driver:       DriverSQLite,
		DSN:          "file::memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := pool.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}
