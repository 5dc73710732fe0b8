package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"gorm.io/gorm"
)

// ReplayCostBasis folds a transaction history in posting order into a
// fresh cost basis. Receipts fold their stored unit cost into the
// average (production-output costs were fixed at posting time); issues
// never move it. The result is a pure function of the history, which is
// what makes rebuild equivalent to incremental posting.
func ReplayCostBasis(pcode string, storeCode string, txns []*models.InventoryTransaction) *models.CostBasis {
	basis := &models.CostBasis{
		Pcode:     pcode,
		StoreCode: storeCode,
		AvgCost:   decimal.Zero,
		OnHand:    decimal.Zero,
	}
	for _, txn := range txns {
		if txn.Qty.IsZero() {
			continue
		}
		if txn.Qty.IsNegative() {
			basis.OnHand = basis.OnHand.Add(txn.Qty)
			continue
		}
		basis.AvgCost, basis.OnHand = foldReceipt(basis.AvgCost, basis.OnHand, txn.Qty, txn.UnitCost)
	}
	return basis
}

// RebuildCostBasis recomputes every cost basis of one store from scratch
// by replaying the ledger chronologically, under the store's posting
// lock so no posting interleaves with the rebuild.
func RebuildCostBasis(ctx context.Context, storeCode string) error {
	db := config.GetDB()
	logger := config.GetLogger()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := AcquireStorePostingLock(ctx, tx, storeCode)
		if err != nil {
			return err
		}
		defer release()

		var pcodes []string
		if err := tx.Model(&models.InventoryTransaction{}).
			Where("store_code = ?", storeCode).
			Distinct("pcode").
			Order("pcode").
			Pluck("pcode", &pcodes).Error; err != nil {
			return err
		}

		for _, pcode := range pcodes {
			txns := make([]*models.InventoryTransaction, 0)
			if err := tx.
				Where("pcode = ? AND store_code = ?", pcode, storeCode).
				Order("txn_date, id").
				Find(&txns).Error; err != nil {
				return err
			}
			replayed := ReplayCostBasis(pcode, storeCode, txns)

			basis, err := models.GetCostBasisForUpdate(tx, pcode, storeCode)
			if err != nil {
				return err
			}
			basis.AvgCost = replayed.AvgCost
			basis.OnHand = replayed.OnHand
			if err := models.SaveCostBasis(tx, basis); err != nil {
				return err
			}
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"module":   "workflow",
				"store":    storeCode,
				"products": len(pcodes),
			}).Info("rebuilt cost bases from ledger")
		}
		return nil
	})
}
