// Package testdb opens throwaway SQLite databases for package tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sahilchouksey/pyq-analyzer/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory store private to t
func New(t testing.TB) *database.GORMStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// one connection keeps shared-cache writes from hitting table locks
	sqlDB.SetMaxOpenConns(1)

	store := database.NewGORMStore(db)
	if err := store.Init(); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}
