package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
	"gorm.io/gorm"
)

// foldReceipt blends one receipt into an average-cost position:
// newAvg = (onHand x avg + qty x unitCost) / (onHand + qty).
// A position without stock (zero or negative on-hand after permitted
// over-consumption) restarts at the receipt's unit cost.
func foldReceipt(avgCost, onHand, qty, unitCost decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	newOnHand := onHand.Add(qty)
	if !onHand.IsPositive() || !newOnHand.IsPositive() {
		return unitCost, newOnHand
	}
	newAvg := onHand.Mul(avgCost).Add(qty.Mul(unitCost)).Div(newOnHand)
	return newAvg, newOnHand
}

// postBatch applies a lot-scoped transaction batch inside the caller's
// DB transaction, in the order the calculator emitted it: issues are
// priced at the current average cost, receipts fold into the average,
// and a production-output receipt is priced from the value the batch
// consumed. Returns non-fatal warnings (over-consumption is an explicit
// policy: the business records production before purchase receipts are
// entered, so stock may go negative).
func postBatch(tx *gorm.DB, logger *logrus.Logger, batchId string, correlationId string, txns []*models.InventoryTransaction) ([]models.Warning, error) {
	warnings := make([]models.Warning, 0)
	consumedValue := decimal.Zero

	for _, txn := range txns {
		if txn.Qty.IsZero() {
			if txn.Kind == models.TransactionKindProductionOutput && consumedValue.IsPositive() {
				// Consumed value has no output to attach to; it stays
				// booked on the consumption rows.
				warnings = append(warnings, models.Warning{
					Code:    models.WarningCodeZeroOutputValue,
					Message: fmt.Sprintf("batch consumed value %s with zero output quantity", consumedValue),
				})
			}
			continue
		}
		basis, err := models.GetCostBasisForUpdate(tx, txn.Pcode, txn.StoreCode)
		if err != nil {
			return nil, err
		}

		if txn.Qty.IsNegative() {
			// Issue: priced at current average, never moves the average.
			txn.UnitCost = basis.AvgCost
			basis.OnHand = basis.OnHand.Add(txn.Qty)
			if basis.OnHand.IsNegative() {
				warnings = append(warnings, models.Warning{
					Code: models.WarningCodeOverConsumption,
					Message: fmt.Sprintf("%s at %s: on-hand %s after issuing %s",
						txn.Pcode, txn.StoreCode, basis.OnHand, txn.Qty.Neg()),
				})
			}
			if txn.Kind == models.TransactionKindProductionConsume {
				consumedValue = consumedValue.Add(txn.Qty.Neg().Mul(txn.UnitCost))
			}
		} else {
			unitCost := txn.UnitCost
			switch txn.Kind {
			case models.TransactionKindProductionOutput:
				unitCost = consumedValue.Div(txn.Qty)
			case models.TransactionKindAdjustment:
				if unitCost.IsZero() {
					// Quantity-only adjustment: keep the average.
					unitCost = basis.AvgCost
				}
			}
			txn.UnitCost = unitCost
			basis.AvgCost, basis.OnHand = foldReceipt(basis.AvgCost, basis.OnHand, txn.Qty, unitCost)
		}

		txn.BatchId = batchId
		txn.CorrelationId = correlationId
		txn.ClosingQty = basis.OnHand
		txn.ClosingAvgCost = basis.AvgCost
		if txn.TxnDate.IsZero() {
			txn.TxnDate = time.Now()
		}
		if err := tx.Create(txn).Error; err != nil {
			return nil, err
		}
		if err := models.SaveCostBasis(tx, basis); err != nil {
			return nil, err
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"module":   "workflow",
			"batch_id": batchId,
			"rows":     len(txns),
		}).Info("posted inventory batch")
	}
	return warnings, nil
}

// PostLot persists a computed lot together with its transaction batch as
// one atomic unit under the store's posting lock. Partial application is
// impossible: any failure rolls the whole batch back. Returns the
// committed batch id and accumulated warnings.
func PostLot(ctx context.Context, lot *models.ProductionLot, txns []*models.InventoryTransaction, warnings []models.Warning) (string, []models.Warning, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	batchId := uuid.NewString()
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	outWarnings := append([]models.Warning{}, warnings...)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := AcquireStorePostingLock(ctx, tx, lot.StoreCode)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.Create(lot).Error; err != nil {
			return err
		}
		ws, err := postBatch(tx, logger, batchId, correlationId, txns)
		if err != nil {
			return err
		}
		outWarnings = append(outWarnings, ws...)
		return nil
	})
	if err != nil {
		config.LogError(logger, "workflow", "PostLot", "lot posting rolled back", lot.LotId, err)
		return "", nil, err
	}
	return batchId, outWarnings, nil
}

// MovementInput records a non-production quantity movement: purchases,
// sales and manual adjustments.
type MovementInput struct {
	Pcode     string          `json:"pcode" binding:"required"`
	StoreCode string          `json:"store_code" binding:"required"`
	Kind      string          `json:"kind" binding:"required"`
	Qty       decimal.Decimal `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TxnDate   *time.Time      `json:"txn_date"`
}

// RecordMovement validates and posts a single-row batch through the same
// posting path as production, so costing stays consistent across all
// transaction kinds.
func RecordMovement(ctx context.Context, input *MovementInput) (*models.InventoryTransaction, []models.Warning, error) {
	kind, err := models.ParseTransactionKind(input.Kind)
	if err != nil {
		return nil, nil, utils.InvalidInputf("%s", err)
	}
	switch kind {
	case models.TransactionKindPurchase:
		if !input.Qty.IsPositive() {
			return nil, nil, utils.InvalidInputf("purchase quantity must be positive")
		}
		if input.UnitCost.IsNegative() {
			return nil, nil, utils.InvalidInputf("purchase unit cost must not be negative")
		}
	case models.TransactionKindSale:
		if !input.Qty.IsNegative() {
			return nil, nil, utils.InvalidInputf("sale quantity must be negative")
		}
	case models.TransactionKindAdjustment:
		if input.Qty.IsZero() {
			return nil, nil, utils.InvalidInputf("adjustment quantity must not be zero")
		}
	default:
		return nil, nil, utils.InvalidInputf("kind %s is recorded through production posting", kind)
	}
	if _, err := models.GetProduct(ctx, input.Pcode); err != nil {
		return nil, nil, err
	}
	if err := models.ValidateStoreCode(ctx, input.StoreCode); err != nil {
		return nil, nil, err
	}

	txnDate := time.Now()
	if input.TxnDate != nil {
		txnDate = *input.TxnDate
	}
	txn := &models.InventoryTransaction{
		Pcode:     input.Pcode,
		StoreCode: input.StoreCode,
		TxnDate:   txnDate,
		Qty:       input.Qty,
		Kind:      kind,
		UnitCost:  input.UnitCost,
	}

	db := config.GetDB()
	logger := config.GetLogger()
	batchId := uuid.NewString()
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var warnings []models.Warning
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := AcquireStorePostingLock(ctx, tx, input.StoreCode)
		if err != nil {
			return err
		}
		defer release()

		warnings, err = postBatch(tx, logger, batchId, correlationId, []*models.InventoryTransaction{txn})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return txn, warnings, nil
}
