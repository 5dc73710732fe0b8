package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Formula is a production recipe: one output product plus dosage rates
// for additives per kilogram of primary input.
type Formula struct {
	ID         int         `gorm:"primary_key" json:"id"`
	Code       string      `gorm:"uniqueIndex;size:30;not null" json:"code" binding:"required"`
	Name       string      `gorm:"size:100;not null" json:"name" binding:"required"`
	Type       FormulaType `gorm:"size:20;not null" json:"type" binding:"required"`
	OutputPcode string     `gorm:"size:30;not null;index" json:"output_pcode" binding:"required"`
	OutputUnit  string     `gorm:"size:20;not null;default:'kg'" json:"output_unit"`
	// RecoveryFactor converts primary-input mass to output mass.
	// Conventionally 1.0 for jam recipes (no mass loss modeled).
	RecoveryFactor decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"recovery_factor"`
	CupsPerKg      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cups_per_kg"`
	Note           string          `gorm:"type:text" json:"note"`
	Inputs         []FormulaInput  `gorm:"foreignKey:FormulaCode;references:Code" json:"inputs"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type FormulaInput struct {
	ID          int              `gorm:"primary_key" json:"id"`
	FormulaCode string           `gorm:"size:30;not null;index" json:"formula_code"`
	Kind        FormulaInputKind `gorm:"size:10;not null" json:"kind"`
	Pcode       string           `gorm:"size:30;not null" json:"pcode"`
	// QtyPerKg is the additive dosage per kilogram of primary input.
	// Zero (and unused) for PRIMARY rows.
	QtyPerKg  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty_per_kg"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewFormula struct {
	Code           string            `json:"code" binding:"required"`
	Name           string            `json:"name" binding:"required"`
	Type           string            `json:"type" binding:"required"`
	OutputPcode    string            `json:"output_pcode" binding:"required"`
	OutputUnit     string            `json:"output_unit"`
	RecoveryFactor decimal.Decimal   `json:"recovery_factor"`
	CupsPerKg      decimal.Decimal   `json:"cups_per_kg"`
	Note           string            `json:"note"`
	Inputs         []NewFormulaInput `json:"inputs"`
}

type NewFormulaInput struct {
	Kind     string          `json:"kind" binding:"required"`
	Pcode    string          `json:"pcode" binding:"required"`
	QtyPerKg decimal.Decimal `json:"qty_per_kg"`
}

func (input *NewFormula) validate(ctx context.Context) (FormulaType, error) {
	formulaType, err := ParseFormulaType(input.Type)
	if err != nil {
		return "", err
	}
	output, err := GetProduct(ctx, input.OutputPcode)
	if err != nil {
		return "", err
	}
	if output.Category != formulaType.OutputCategory() {
		return "", fmt.Errorf("output product %s must be category %s, got %s",
			output.Code, formulaType.OutputCategory(), output.Category)
	}
	if !input.RecoveryFactor.IsPositive() {
		return "", errors.New("recovery factor must be greater than zero")
	}
	for _, in := range input.Inputs {
		kind := FormulaInputKind(in.Kind)
		if kind != FormulaInputKindPrimary && kind != FormulaInputKindAdditive {
			return "", fmt.Errorf("invalid formula input kind %q", in.Kind)
		}
		product, err := GetProduct(ctx, in.Pcode)
		if err != nil {
			return "", fmt.Errorf("formula input %s: %w", in.Pcode, err)
		}
		switch kind {
		case FormulaInputKindPrimary:
			if product.Category != formulaType.PrimaryCategory() {
				return "", fmt.Errorf("primary input %s must be category %s, got %s",
					product.Code, formulaType.PrimaryCategory(), product.Category)
			}
		case FormulaInputKindAdditive:
			if product.Category != ProductCategoryAdditive {
				return "", fmt.Errorf("additive input %s must be category %s, got %s",
					product.Code, ProductCategoryAdditive, product.Category)
			}
			if in.QtyPerKg.IsNegative() {
				return "", fmt.Errorf("additive %s: qty_per_kg must not be negative", product.Code)
			}
		}
	}
	return formulaType, nil
}

// UpsertFormula replaces the formula row and its input rows as one unit.
func UpsertFormula(ctx context.Context, input *NewFormula) (*Formula, error) {
	formulaType, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	outputUnit := strings.TrimSpace(input.OutputUnit)
	if outputUnit == "" {
		outputUnit = "kg"
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		formula := Formula{
			Code:           code,
			Name:           input.Name,
			Type:           formulaType,
			OutputPcode:    input.OutputPcode,
			OutputUnit:     outputUnit,
			RecoveryFactor: input.RecoveryFactor,
			CupsPerKg:      input.CupsPerKg,
			Note:           input.Note,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "output_pcode", "output_unit", "recovery_factor", "cups_per_kg", "note", "updated_at"}),
		}).Create(&formula).Error; err != nil {
			return err
		}
		if err := tx.Where("formula_code = ?", code).Delete(&FormulaInput{}).Error; err != nil {
			return err
		}
		for _, in := range input.Inputs {
			row := FormulaInput{
				FormulaCode: code,
				Kind:        FormulaInputKind(in.Kind),
				Pcode:       in.Pcode,
				QtyPerKg:    in.QtyPerKg,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Drop the stale cache entry; readers tolerate the window anyway.
	_ = config.RemoveRedisKey(formulaCacheKey(code))

	return GetFormula(ctx, code)
}

func formulaCacheKey(code string) string {
	return "Formula:" + code
}

const formulaCacheTTL = 5 * time.Minute

// GetFormula resolves a recipe by code through a short-TTL redis
// read-through cache. Cache misses and redis outages fall back to the
// database; absent rows are RecordNotFound.
func GetFormula(ctx context.Context, code string) (*Formula, error) {
	var cached Formula
	if found, err := config.GetRedisObject(formulaCacheKey(code), &cached); err == nil && found {
		return &cached, nil
	}

	formula, err := utils.FetchModelByCode[Formula](ctx, code, "Inputs")
	if err != nil {
		return nil, err
	}
	_ = config.SetRedisObject(formulaCacheKey(code), formula, formulaCacheTTL)
	return formula, nil
}

// GetAdditiveInputs returns the formula's additive dosage rows in insertion
// order. A formula without additives yields an empty slice, not an error.
func GetAdditiveInputs(ctx context.Context, formulaCode string) ([]*FormulaInput, error) {
	if err := utils.ValidateResourceCode[Formula](ctx, formulaCode); err != nil {
		return nil, err
	}
	db := config.GetDB()
	inputs := make([]*FormulaInput, 0)
	err := db.WithContext(ctx).
		Where("formula_code = ? AND kind = ?", formulaCode, FormulaInputKindAdditive).
		Order("id").
		Find(&inputs).Error
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

// GetPrimaryCandidates lists the products a formula of the given type may
// withdraw as primary input.
func GetPrimaryCandidates(ctx context.Context, formulaType FormulaType) ([]*Product, error) {
	return GetProductsByCategory(ctx, formulaType.PrimaryCategory())
}
