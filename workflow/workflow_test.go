package workflow_test

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

// setupTestDB points the whole codebase at a throwaway sqlite database.
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

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// assertDecimal compares with a small tolerance: sqlite aggregates go
// through float64, so SUM-derived figures can carry float noise that
// MySQL's DECIMAL arithmetic would not.
func assertDecimal(t *testing.T, label string, want string, got decimal.Decimal) {
	t.Helper()
	w := dec(t, want)
	if got.Sub(w).Abs().GreaterThan(decimal.New(1, -6)) {
		t.Fatalf("%s: want %s, got %s", label, want, got)
	}
}

func seedProduct(t *testing.T, code, name string, category models.ProductCategory) {
	t.Helper()
	_, err := models.UpsertProduct(context.Background(), &models.NewProduct{
		Code:     code,
		Name:     name,
		Category: string(category),
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", code, err)
	}
}

// seedCatalog loads the guava concentrate scenario: raw guava, citric
// acid dosed at 0.002 kg per kg of fruit, recovery factor 0.8, plus a
// jam recipe consuming the concentrate.
func seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	seedProduct(t, "GUAVA", "Guava fruit", models.ProductCategoryRawFruit)
	seedProduct(t, "MANGO", "Mango fruit", models.ProductCategoryRawFruit)
	seedProduct(t, "CITRIC_ACID", "Citric acid", models.ProductCategoryAdditive)
	seedProduct(t, "COT_OI", "Guava concentrate", models.ProductCategoryConcentrate)
	seedProduct(t, "MUT_OI", "Guava jam", models.ProductCategoryJam)

	if _, err := models.UpsertStore(ctx, &models.NewStore{Code: "ST01", Name: "Store 01"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if _, err := models.UpsertStore(ctx, &models.NewStore{Code: "ST02", Name: "Store 02"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	_, err := models.UpsertFormula(ctx, &models.NewFormula{
		Code:           "COT_OI",
		Name:           "Guava concentrate",
		Type:           string(models.FormulaTypeConcentrate),
		OutputPcode:    "COT_OI",
		RecoveryFactor: dec(t, "0.8"),
		CupsPerKg:      dec(t, "4"),
		Inputs: []models.NewFormulaInput{
			{Kind: string(models.FormulaInputKindPrimary), Pcode: "GUAVA"},
			{Kind: string(models.FormulaInputKindAdditive), Pcode: "CITRIC_ACID", QtyPerKg: dec(t, "0.002")},
		},
	})
	if err != nil {
		t.Fatalf("seed formula COT_OI: %v", err)
	}

	_, err = models.UpsertFormula(ctx, &models.NewFormula{
		Code:           "MUT_OI",
		Name:           "Guava jam",
		Type:           string(models.FormulaTypeJam),
		OutputPcode:    "MUT_OI",
		RecoveryFactor: dec(t, "1"),
		Inputs: []models.NewFormulaInput{
			{Kind: string(models.FormulaInputKindPrimary), Pcode: "COT_OI"},
		},
	})
	if err != nil {
		t.Fatalf("seed formula MUT_OI: %v", err)
	}
}
