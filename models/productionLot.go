package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
)

// ProductionLot is one manufacturing run. Its consumption and output
// figures are immutable after creation; corrections are compensating
// inventory transactions.
type ProductionLot struct {
	ID          int         `gorm:"primary_key" json:"id"`
	LotId       string      `gorm:"uniqueIndex;size:60;not null" json:"lot_id"`
	FormulaCode string      `gorm:"size:30;not null;index" json:"formula_code"`
	FormulaType FormulaType `gorm:"size:20;not null" json:"formula_type"`
	StoreCode   string      `gorm:"size:30;not null;index" json:"store_code"`
	CreatedBy   string      `gorm:"size:100" json:"created_by"`
	// InputQty is the total primary-input mass consumed, in kg.
	InputQty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"input_qty"`
	OutputPcode    string          `gorm:"size:30;not null" json:"output_pcode"`
	OutputQty      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"output_qty"`
	OutputCups     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"output_cups"`
	RecoveryFactor decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"recovery_factor"`
	Status         LotStatus       `gorm:"size:20;not null;default:'Created'" json:"status"`
	Additives      []LotAdditive   `gorm:"foreignKey:LotId;references:LotId" json:"additives"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// LotAdditive records one additive consumption of a lot.
type LotAdditive struct {
	ID    int             `gorm:"primary_key" json:"id"`
	LotId string          `gorm:"size:60;not null;index" json:"lot_id"`
	Pcode string          `gorm:"size:30;not null" json:"pcode"`
	Qty   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
}

var (
	lotIdMu     sync.Mutex
	lotIdLastMs int64
	lotIdSeq    int
)

// NewLotId builds a human-traceable lot identifier from the recipe-type
// prefix, the store code and the current millisecond timestamp, e.g.
// "COT-ST01-1693526400000".
//
// A process-local sequence suffix keeps ids distinct when two lots land
// in the same millisecond in one process. Across processes, same-millisecond
// ids for the same store+prefix still collide; callers must treat the
// result as best-effort unique, not cryptographically unique.
func NewLotId(prefix string, storeCode string) string {
	lotIdMu.Lock()
	defer lotIdMu.Unlock()

	ms := time.Now().UnixMilli()
	if ms == lotIdLastMs {
		lotIdSeq++
	} else {
		lotIdLastMs = ms
		lotIdSeq = 0
	}
	if lotIdSeq == 0 {
		return fmt.Sprintf("%s-%s-%d", prefix, storeCode, ms)
	}
	return fmt.Sprintf("%s-%s-%d-%d", prefix, storeCode, ms, lotIdSeq)
}

func GetProductionLot(ctx context.Context, lotId string) (*ProductionLot, error) {
	db := config.GetDB()
	var lot ProductionLot
	err := db.WithContext(ctx).Preload("Additives").Where("lot_id = ?", lotId).First(&lot).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &lot, nil
}

// GetProductionLots lists lots for one store, newest first.
func GetProductionLots(ctx context.Context, storeCode string) ([]*ProductionLot, error) {
	db := config.GetDB()
	lots := make([]*ProductionLot, 0)
	err := db.WithContext(ctx).Preload("Additives").
		Where("store_code = ?", storeCode).
		Order("created_at DESC, id DESC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}
