package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
)

// InventoryTransaction is one append-only ledger row. Positive Qty is a
// receipt, negative an issue. On-hand is always SUM(qty) over this
// table, never a stored counter, so the ledger cannot drift.
type InventoryTransaction struct {
	ID        int             `gorm:"primary_key" json:"id"`
	BatchId   string          `gorm:"size:36;index;not null" json:"batch_id"`
	Pcode     string          `gorm:"index:idx_inv_txn_pcode_store;size:30;not null" json:"pcode"`
	StoreCode string          `gorm:"index:idx_inv_txn_pcode_store;size:30;not null" json:"store_code"`
	TxnDate   time.Time       `gorm:"index;not null" json:"txn_date"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	Kind      TransactionKind `gorm:"size:20;not null" json:"kind"`
	// UnitCost is explicit on receipts; on issues it is fixed to the
	// average cost current at posting time.
	UnitCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	// Closing figures echo the cost basis after this row was posted.
	ClosingQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"closing_qty"`
	ClosingAvgCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"closing_avg_cost"`
	RefType        string          `gorm:"size:20" json:"ref_type"` // e.g. LOT
	RefId          string          `gorm:"size:60;index" json:"ref_id"`
	CorrelationId  string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// OnHand derives the current quantity for a (product, store) pair by
// summing all transaction deltas.
func OnHand(ctx context.Context, pcode string, storeCode string) (decimal.Decimal, error) {
	db := config.GetDB()
	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(qty), 0) AS total
		FROM inventory_transactions
		WHERE pcode = ? AND store_code = ?
	`, pcode, storeCode).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// QueryTransactions returns ledger rows for a (product, store) pair in
// posting order, optionally restricted to rows at or after since.
func QueryTransactions(ctx context.Context, pcode string, storeCode string, since *time.Time) ([]*InventoryTransaction, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).
		Where("pcode = ? AND store_code = ?", pcode, storeCode)
	if since != nil {
		query = query.Where("txn_date >= ?", *since)
	}
	txns := make([]*InventoryTransaction, 0)
	err := query.Order("txn_date, id").Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
