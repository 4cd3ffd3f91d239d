package repo

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// newTestDB открывает SQLite (modernc.org/sqlite) во временном каталоге и применяет схему
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(context.Background(), filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
