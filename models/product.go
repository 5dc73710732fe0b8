package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
	"gorm.io/gorm/clause"
)

type Product struct {
	ID       int             `gorm:"primary_key" json:"id"`
	Code     string          `gorm:"uniqueIndex;size:30;not null" json:"code" binding:"required"`
	Name     string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Category ProductCategory `gorm:"size:20;not null;index" json:"category" binding:"required"`
	Unit     string          `gorm:"size:20;not null;default:'kg'" json:"unit"`
	// CupsPerKg converts stored mass to cup counts for display and
	// packaging reconciliation. Display-only, never part of mass math.
	CupsPerKg      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cups_per_kg"`
	ReferencePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reference_price"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Code           string          `json:"code" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	Category       string          `json:"category" binding:"required"`
	Unit           string          `json:"unit"`
	CupsPerKg      decimal.Decimal `json:"cups_per_kg"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
}

func (input *NewProduct) validate() (ProductCategory, error) {
	if strings.TrimSpace(input.Code) == "" {
		return "", errors.New("product code is required")
	}
	category, err := ParseProductCategory(input.Category)
	if err != nil {
		return "", err
	}
	if input.CupsPerKg.IsNegative() || input.ReferencePrice.IsNegative() {
		return "", errors.New("cups_per_kg and reference_price must not be negative")
	}
	return category, nil
}

// UpsertProduct inserts or updates the catalog row keyed by code.
// Products change only through this explicit upsert.
func UpsertProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	category, err := input.validate()
	if err != nil {
		return nil, err
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "kg"
	}
	active := true
	product := Product{
		Code:           strings.TrimSpace(input.Code),
		Name:           input.Name,
		Category:       category,
		Unit:           unit,
		CupsPerKg:      input.CupsPerKg,
		ReferencePrice: input.ReferencePrice,
		IsActive:       &active,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "category", "unit", "cups_per_kg", "reference_price", "updated_at"}),
		}).
		Create(&product).Error
	if err != nil {
		return nil, err
	}
	return GetProduct(ctx, product.Code)
}

func GetProduct(ctx context.Context, code string) (*Product, error) {
	return utils.FetchModelByCode[Product](ctx, code)
}

// GetProductsByCategory lists active products of one category, ordered by code.
func GetProductsByCategory(ctx context.Context, category ProductCategory) ([]*Product, error) {
	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("code").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
