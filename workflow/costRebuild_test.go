package workflow_test

import (
	"context"
	"testing"

	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/workflow"
)

// Replaying the full ledger from scratch must land on exactly the cost
// bases that incremental posting produced.
func TestRebuildCostBasis_MatchesIncrementalPosting(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)
	ctx := context.Background()

	purchase(t, "GUAVA", "ST01", "100", "2")
	purchase(t, "CITRIC_ACID", "ST01", "10", "50")

	lot, txns, warnings, err := workflow.ComputeProduction(ctx, &workflow.ProductionInput{
		FormulaCode: "COT_OI",
		StoreCode:   "ST01",
		Withdrawals: []workflow.WithdrawalInput{
			{Pcode: "GUAVA", QtyKg: dec(t, "60")},
		},
	})
	if err != nil {
		t.Fatalf("ComputeProduction: %v", err)
	}
	if _, _, err := workflow.PostLot(ctx, lot, txns, warnings); err != nil {
		t.Fatalf("PostLot: %v", err)
	}

	purchase(t, "GUAVA", "ST01", "50", "3")
	if _, _, err := workflow.RecordMovement(ctx, &workflow.MovementInput{
		Pcode:     "COT_OI",
		StoreCode: "ST01",
		Kind:      string(models.TransactionKindSale),
		Qty:       dec(t, "-12"),
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	// Snapshot incremental results, then corrupt the stored bases.
	pcodes := []string{"GUAVA", "CITRIC_ACID", "COT_OI"}
	incremental := map[string]*models.CostBasis{}
	for _, pcode := range pcodes {
		basis, err := models.GetCostBasis(ctx, pcode, "ST01")
		if err != nil {
			t.Fatalf("GetCostBasis %s: %v", pcode, err)
		}
		incremental[pcode] = basis
	}
	if err := config.GetDB().Model(&models.CostBasis{}).
		Where("store_code = ?", "ST01").
		Updates(map[string]interface{}{"avg_cost": "999", "on_hand": "999"}).Error; err != nil {
		t.Fatalf("corrupting bases: %v", err)
	}

	if err := workflow.RebuildCostBasis(ctx, "ST01"); err != nil {
		t.Fatalf("RebuildCostBasis: %v", err)
	}

	for _, pcode := range pcodes {
		rebuilt, err := models.GetCostBasis(ctx, pcode, "ST01")
		if err != nil {
			t.Fatalf("GetCostBasis %s: %v", pcode, err)
		}
		assertDecimal(t, pcode+" avg cost", incremental[pcode].AvgCost.String(), rebuilt.AvgCost)
		assertDecimal(t, pcode+" on hand", incremental[pcode].OnHand.String(), rebuilt.OnHand)
	}
}

func TestReplayCostBasis_PureFold(t *testing.T) {
	setupTestDB(t)
	seedCatalog(t)
	ctx := context.Background()

	purchase(t, "GUAVA", "ST02", "50", "10")
	purchase(t, "GUAVA", "ST02", "30", "20")
	if _, _, err := workflow.RecordMovement(ctx, &workflow.MovementInput{
		Pcode:     "GUAVA",
		StoreCode: "ST02",
		Kind:      string(models.TransactionKindSale),
		Qty:       dec(t, "-20"),
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	history, err := models.QueryTransactions(ctx, "GUAVA", "ST02", nil)
	if err != nil {
		t.Fatalf("QueryTransactions: %v", err)
	}
	replayed := workflow.ReplayCostBasis("GUAVA", "ST02", history)

	assertDecimal(t, "replayed avg", "13.75", replayed.AvgCost)
	assertDecimal(t, "replayed on hand", "60", replayed.OnHand)
}
