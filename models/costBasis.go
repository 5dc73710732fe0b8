package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CostBasis holds the weighted-average unit cost and the on-hand
// quantity at last posting for a (product, store) pair. It is derived
// state: replaying the ledger in posting order rebuilds it exactly.
type CostBasis struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Pcode     string          `gorm:"uniqueIndex:idx_cost_basis_pcode_store;size:30;not null" json:"pcode"`
	StoreCode string          `gorm:"uniqueIndex:idx_cost_basis_pcode_store;size:30;not null" json:"store_code"`
	AvgCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"avg_cost"`
	OnHand    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"on_hand"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetCostBasisForUpdate loads (or initializes) the cost basis row inside
// the caller's transaction, holding a row lock where the dialect supports
// it. Concurrent receipts for the same pair must serialize because the
// averaging formula is order-sensitive.
func GetCostBasisForUpdate(tx *gorm.DB, pcode string, storeCode string) (*CostBasis, error) {
	query := tx.Where("pcode = ? AND store_code = ?", pcode, storeCode)
	if tx.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var basis CostBasis
	err := query.First(&basis).Error
	if err == nil {
		return &basis, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	basis = CostBasis{
		Pcode:     pcode,
		StoreCode: storeCode,
		AvgCost:   decimal.Zero,
		OnHand:    decimal.Zero,
	}
	if err := tx.Create(&basis).Error; err != nil {
		return nil, err
	}
	return &basis, nil
}

// SaveCostBasis persists recomputed figures inside the caller's transaction.
func SaveCostBasis(tx *gorm.DB, basis *CostBasis) error {
	return tx.Model(&CostBasis{}).
		Where("id = ?", basis.ID).
		Updates(map[string]interface{}{
			"avg_cost": basis.AvgCost,
			"on_hand":  basis.OnHand,
		}).Error
}

func GetCostBasis(ctx context.Context, pcode string, storeCode string) (*CostBasis, error) {
	db := config.GetDB()
	var basis CostBasis
	err := db.WithContext(ctx).
		Where("pcode = ? AND store_code = ?", pcode, storeCode).
		First(&basis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No postings yet: empty position at zero cost.
			return &CostBasis{Pcode: pcode, StoreCode: storeCode}, nil
		}
		return nil, err
	}
	return &basis, nil
}

// Valuation totals on_hand x avg_cost across all products of a store.
func Valuation(ctx context.Context, storeCode string) (decimal.Decimal, error) {
	db := config.GetDB()
	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(on_hand * avg_cost), 0) AS total
		FROM cost_bases
		WHERE store_code = ?
	`, storeCode).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
