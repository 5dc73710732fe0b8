package models_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.SetDB(db)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		config.SetDB(nil)
	})
	models.MigrateTable()
}

func seedProduct(t *testing.T, code string, category models.ProductCategory) {
	t.Helper()
	_, err := models.UpsertProduct(context.Background(), &models.NewProduct{
		Code:     code,
		Name:     code,
		Category: string(category),
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", code, err)
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}
