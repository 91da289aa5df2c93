package services

import (
	"testing"

	"gorm.io/gorm"

	"tirelire/internal/testutil"
)

// setup opens an isolated in-memory database and registers its teardown.
func setup(t *testing.T) *gorm.DB {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return db
}
