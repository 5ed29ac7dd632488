// Package testutil holds helpers shared by storage-backed tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	platformdb "github.com/fatflowers/fuelpos/internal/platform/db"
)

// NewDB opens a migrated in-memory SQLite database private to t.
// The pool is capped at one connection so every query sees the same memory
// database; code under test must therefore run nested queries on the
// transaction handle it was given.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, platformdb.Migrate(zap.NewNop().Sugar(), db))
	return db
}
