// Package datatest opens throwaway in-memory SQLite databases for tests.
package datatest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/data"
)

// NewDB returns a migrated database private to t. It holds a single
// connection, so concurrent transactions queue instead of failing with
// "database is locked".
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), data.GormConfig(nil))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := data.Migrate(db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
