package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/workflow"
)

func TestComputeProduction_ConcentrateScenario(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)
	ctx := context.Background()

	lot, txns, warnings, err := workflow.ComputeProduction(ctx, &workflow.ProductionInput{
		FormulaCode: "COT_OI",
		StoreCode:   "ST01",
		Withdrawals: []workflow.WithdrawalInput{
			{Pcode: "GUAVA", QtyKg: dec(t, "100")},
		},
	})
	if err != nil {
		t.Fatalf("ComputeProduction: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}

	assertDecimal(t, "input qty", "100", lot.InputQty)
	assertDecimal(t, "output qty", "80", lot.OutputQty)
	if lot.OutputPcode != "COT_OI" {
		t.Fatalf("output pcode: want COT_OI, got %s", lot.OutputPcode)
	}
	if len(lot.Additives) != 1 || lot.Additives[0].Pcode != "CITRIC_ACID" {
		t.Fatalf("additives: %+v", lot.Additives)
	}
	assertDecimal(t, "citric acid consumption", "0.2", lot.Additives[0].Qty)

	// One consume per withdrawal, one per additive, one output.
	if len(txns) != 3 {
		t.Fatalf("transactions: want 3, got %d", len(txns))
	}
	byPcode := map[string]decimal.Decimal{}
	for _, txn := range txns {
		byPcode[txn.Pcode] = txn.Qty
		if txn.RefId != lot.LotId {
			t.Fatalf("transaction %s not linked to lot %s", txn.Pcode, lot.LotId)
		}
	}
	assertDecimal(t, "guava delta", "-100", byPcode["GUAVA"])
	assertDecimal(t, "citric delta", "-0.2", byPcode["CITRIC_ACID"])
	assertDecimal(t, "output delta", "80", byPcode["COT_OI"])
}

func TestComputeProduction_DryRun(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)

	lot, txns, warnings, err := workflow.ComputeProduction(context.Background(), &workflow.ProductionInput{
		FormulaCode: "COT_OI",
		StoreCode:   "ST01",
	})
	if err != nil {
		t.Fatalf("dry run must not fail: %v", err)
	}
	if !lot.OutputQty.IsZero() {
		t.Fatalf("dry run output: want 0, got %s", lot.OutputQty)
	}
	if len(lot.Additives) != 0 {
		t.Fatalf("dry run additives: want none, got %+v", lot.Additives)
	}
	if len(txns) != 0 {
		t.Fatalf("dry run transactions: want none, got %d", len(txns))
	}
	if len(warnings) != 1 || warnings[0].Code != models.WarningCodeDryRun {
		t.Fatalf("dry run warnings: %+v", warnings)
	}
}

func TestComputeProduction_JamMassAndCups(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)

	gramsPerCup := dec(t, "250")
	lot, txns, _, err := workflow.ComputeProduction(context.Background(), &workflow.ProductionInput{
		FormulaCode: "MUT_OI",
		StoreCode:   "ST01",
		GramsPerCup: &gramsPerCup,
		Withdrawals: []workflow.WithdrawalInput{
			{Pcode: "COT_OI", QtyKg: dec(t, "10.1")},
		},
	})
	if err != nil {
		t.Fatalf("ComputeProduction: %v", err)
	}

	// No mass loss on the jam path.
	assertDecimal(t, "output mass", "10.1", lot.OutputQty)
	// 10100 g / 250 g per cup = 40.4, floored.
	assertDecimal(t, "cups", "40", lot.OutputCups)

	// The cup figure never feeds back into mass-based transactions.
	for _, txn := range txns {
		if txn.Pcode == "MUT_OI" {
			assertDecimal(t, "output delta", "10.1", txn.Qty)
		}
	}
}

func TestComputeProduction_RejectsWrongCategory(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)

	// Citric acid is an additive, not a raw fruit.
	_, _, _, err := workflow.ComputeProduction(context.Background(), &workflow.ProductionInput{
		FormulaCode: "COT_OI",
		StoreCode:   "ST01",
		Withdrawals: []workflow.WithdrawalInput{
			{Pcode: "CITRIC_ACID", QtyKg: dec(t, "1")},
		},
	})
	if !utils.IsInvalidInput(err) {
		t.Fatalf("want InvalidInput, got %v", err)
	}
}

func TestComputeProduction_RejectsNonPositiveInputs(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)
	ctx := context.Background()

	zero := decimal.Zero
	_, _, _, err := workflow.ComputeProduction(ctx, &workflow.ProductionInput{
		FormulaCode:    "COT_OI",
		StoreCode:      "ST01",
		RecoveryFactor: &zero,
		Withdrawals: []workflow.WithdrawalInput{
			{Pcode: "GUAVA", QtyKg: dec(t, "100")},
		},
	})
	if !utils.IsInvalidInput(err) {
		t.Fatalf("zero recovery factor: want InvalidInput, got %v", err)
	}

	_, _, _, err = workflow.ComputeProduction(ctx, &workflow.ProductionInput{
		FormulaCode: "COT_OI",
		StoreCode:   "ST01",
		Withdrawals: []workflow.WithdrawalInput{
			{Pcode: "GUAVA", QtyKg: dec(t, "-5")},
		},
	})
	if !utils.IsInvalidInput(err) {
		t.Fatalf("negative withdrawal: want InvalidInput, got %v", err)
	}
}

func TestComputeProduction_NotFound(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)
	ctx := context.Background()

	_, _, _, err := workflow.ComputeProduction(ctx, &workflow.ProductionInput{
		FormulaCode: "NO_SUCH",
		StoreCode:   "ST01",
	})
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing formula: want RecordNotFound, got %v", err)
	}

	_, _, _, err = workflow.ComputeProduction(ctx, &workflow.ProductionInput{
		FormulaCode: "COT_OI",
		StoreCode:   "NO_STORE",
	})
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing store: want RecordNotFound, got %v", err)
	}
}

func TestAdditiveConsumption_ZeroInputKeepsEntries(t *testing.T) {
	inputs := []*models.FormulaInput{
		{Pcode: "CITRIC_ACID", QtyPerKg: decimal.RequireFromString("0.002")},
		{Pcode: "PECTIN", QtyPerKg: decimal.RequireFromString("0.01")},
	}

	rows := workflow.AdditiveConsumption(inputs, decimal.Zero)
	if len(rows) != 2 {
		t.Fatalf("want entries for every additive, got %d", len(rows))
	}
	for _, row := range rows {
		if !row.Qty.IsZero() {
			t.Fatalf("additive %s: want zero qty, got %s", row.Pcode, row.Qty)
		}
	}

	rows = workflow.AdditiveConsumption(inputs, decimal.RequireFromString("50"))
	if !rows[0].Qty.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("citric at 50kg: want 0.1, got %s", rows[0].Qty)
	}
	if !rows[1].Qty.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("pectin at 50kg: want 0.5, got %s", rows[1].Qty)
	}
}
