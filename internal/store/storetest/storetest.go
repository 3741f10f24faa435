// Package storetest opens isolated in-memory stores for tests.
package storetest

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/db"
	"laundry-booking-backend/internal/store"
)

// New returns a migrated store backed by a private SQLite memory database that is
// closed when the test ends. The pool holds a single connection, so code running inside
// Transaction must only use the transaction's store.
func New(t testing.TB) store.Store {
	t.Helper()
	gdb, err := db.Init(&config.DatabaseConfig{
		DSN:                    "sqlite:file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns:           1,
		MaxIdleConns:           1,
		ConnMaxLifetimeMinutes: 60,
		LogLevel:               "silent",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store.NewGormStore(gdb)
}
