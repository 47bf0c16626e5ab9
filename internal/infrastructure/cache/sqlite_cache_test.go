package cache

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"faultline/internal/infrastructure/persistence/sqlite/model"
)

func setupCache(t *testing.T) *SQLiteCache {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.KV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteCache(db)
}

func TestCacheSetGetDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "defect_status:d1"); err != nil || found {
		t.Fatalf("Get() before set = found=%v err=%v", found, err)
	}

	if err := c.Set(ctx, "defect_status:d1", "open", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "defect_status:d1", "closed", 0); err != nil {
		t.Fatalf("Set() upsert error = %v", err)
	}

	value, found, err := c.Get(ctx, "defect_status:d1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != "closed" {
		t.Fatalf("Get() = %q found=%v", value, found)
	}

	if err := c.Delete(ctx, "defect_status:d1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := c.Get(ctx, "defect_status:d1"); found {
		t.Fatalf("Get() after delete found = true")
	}
}
