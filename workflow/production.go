package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
)

// WithdrawalInput is one operator-declared raw-material withdrawal.
type WithdrawalInput struct {
	Pcode string          `json:"pcode" binding:"required"`
	QtyKg decimal.Decimal `json:"qty_kg"`
}

// ProductionInput is the operator submission for one manufacturing run.
// Recovery factor and cup conversions are type-dependent overrides; when
// nil the formula's stored values apply.
type ProductionInput struct {
	FormulaCode    string            `json:"formula_code" binding:"required"`
	StoreCode      string            `json:"store_code" binding:"required"`
	RecoveryFactor *decimal.Decimal  `json:"recovery_factor"` // CONCENTRATE
	CupsPerKg      *decimal.Decimal  `json:"cups_per_kg"`     // CONCENTRATE
	GramsPerCup    *decimal.Decimal  `json:"grams_per_cup"`   // JAM
	Withdrawals    []WithdrawalInput `json:"withdrawals"`
}

var thousand = decimal.NewFromInt(1000)

// AdditiveConsumption computes per-additive consumed quantities for a
// given total primary-input mass: qty_per_kg x total kg. Entries are
// emitted for every additive, zero-valued when totalKg is zero.
func AdditiveConsumption(inputs []*models.FormulaInput, totalKg decimal.Decimal) []models.LotAdditive {
	rows := make([]models.LotAdditive, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, models.LotAdditive{
			Pcode: in.Pcode,
			Qty:   in.QtyPerKg.Mul(totalKg),
		})
	}
	return rows
}

// ConcentrateOutput converts total primary-input mass to output mass.
func ConcentrateOutput(totalKg decimal.Decimal, recovery decimal.Decimal) decimal.Decimal {
	return totalKg.Mul(recovery)
}

// JamCups derives the display cup count from output mass: output grams
// divided by grams per cup, floored to whole cups. The figure is used
// for packaging reconciliation only and never feeds back into mass math.
func JamCups(outputKg decimal.Decimal, gramsPerCup decimal.Decimal) decimal.Decimal {
	if !gramsPerCup.IsPositive() {
		return decimal.Zero
	}
	return outputKg.Mul(thousand).Div(gramsPerCup).Floor()
}

// ComputeProduction validates an operator submission and transforms it
// into a fully populated lot plus its inventory transaction candidates.
// Nothing is persisted here; the candidates are handed to PostLot as one
// atomic unit. NotFound and InvalidInput abort before any transaction is
// constructed; a zero-withdrawal submission is a valid dry run that
// yields zero output and a warning instead of a failure.
func ComputeProduction(ctx context.Context, input *ProductionInput) (*models.ProductionLot, []*models.InventoryTransaction, []models.Warning, error) {
	formula, err := models.GetFormula(ctx, input.FormulaCode)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := models.ValidateStoreCode(ctx, input.StoreCode); err != nil {
		return nil, nil, nil, err
	}
	if _, err := models.GetProduct(ctx, formula.OutputPcode); err != nil {
		// Dangling output reference (e.g. stale cached formula).
		return nil, nil, nil, err
	}

	recovery := formula.RecoveryFactor
	if formula.Type == models.FormulaTypeJam {
		// Two-source jam path models no mass loss.
		recovery = decimal.NewFromInt(1)
	} else if input.RecoveryFactor != nil {
		recovery = *input.RecoveryFactor
	}
	if !recovery.IsPositive() {
		// A zero factor means a misconfigured recipe, not "no production".
		return nil, nil, nil, utils.InvalidInputf("recovery factor must be greater than zero, got %s", recovery)
	}

	primaryCategory := formula.Type.PrimaryCategory()
	totalKg := decimal.Zero
	for _, w := range input.Withdrawals {
		if !w.QtyKg.IsPositive() {
			return nil, nil, nil, utils.InvalidInputf("withdrawal %s: quantity must be greater than zero", w.Pcode)
		}
		product, err := models.GetProduct(ctx, w.Pcode)
		if err != nil {
			return nil, nil, nil, err
		}
		if product.Category != primaryCategory {
			return nil, nil, nil, utils.InvalidInputf("withdrawal %s: category %s not allowed for %s formulas (want %s)",
				w.Pcode, product.Category, formula.Type, primaryCategory)
		}
		totalKg = totalKg.Add(w.QtyKg)
	}

	warnings := make([]models.Warning, 0)

	additiveInputs, err := models.GetAdditiveInputs(ctx, formula.Code)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, in := range additiveInputs {
		if _, err := models.GetProduct(ctx, in.Pcode); err != nil {
			return nil, nil, nil, fmt.Errorf("additive %s: %w", in.Pcode, err)
		}
	}

	outputQty := ConcentrateOutput(totalKg, recovery)
	outputCups := decimal.Zero
	switch formula.Type {
	case models.FormulaTypeJam:
		gramsPerCup := decimal.Zero
		if input.GramsPerCup != nil {
			gramsPerCup = *input.GramsPerCup
		} else if formula.CupsPerKg.IsPositive() {
			gramsPerCup = thousand.Div(formula.CupsPerKg)
		}
		outputCups = JamCups(outputQty, gramsPerCup)
	default:
		cupsPerKg := formula.CupsPerKg
		if input.CupsPerKg != nil {
			cupsPerKg = *input.CupsPerKg
		}
		outputCups = outputQty.Mul(cupsPerKg)
	}

	userName, _ := utils.GetUserNameFromContext(ctx)
	lot := &models.ProductionLot{
		LotId:          models.NewLotId(formula.Type.LotIdPrefix(), input.StoreCode),
		FormulaCode:    formula.Code,
		FormulaType:    formula.Type,
		StoreCode:      input.StoreCode,
		CreatedBy:      userName,
		InputQty:       totalKg,
		OutputPcode:    formula.OutputPcode,
		OutputQty:      outputQty,
		OutputCups:     outputCups,
		RecoveryFactor: recovery,
		Status:         models.LotStatusCreated,
	}

	if totalKg.IsZero() {
		warnings = append(warnings, models.Warning{
			Code:    models.WarningCodeDryRun,
			Message: "zero total withdrawal: dry run, no output and no consumption",
		})
		return lot, nil, warnings, nil
	}

	now := time.Now()
	txns := make([]*models.InventoryTransaction, 0, len(input.Withdrawals)+len(additiveInputs)+1)
	for _, w := range input.Withdrawals {
		txns = append(txns, &models.InventoryTransaction{
			Pcode:     w.Pcode,
			StoreCode: input.StoreCode,
			TxnDate:   now,
			Qty:       w.QtyKg.Neg(),
			Kind:      models.TransactionKindProductionConsume,
			RefType:   "LOT",
			RefId:     lot.LotId,
		})
	}
	for _, add := range AdditiveConsumption(additiveInputs, totalKg) {
		if add.Qty.IsZero() {
			continue
		}
		lot.Additives = append(lot.Additives, add)
		txns = append(txns, &models.InventoryTransaction{
			Pcode:     add.Pcode,
			StoreCode: input.StoreCode,
			TxnDate:   now,
			Qty:       add.Qty.Neg(),
			Kind:      models.TransactionKindProductionConsume,
			RefType:   "LOT",
			RefId:     lot.LotId,
		})
	}
	// Output unit cost is derived at posting time from the value the
	// batch actually consumes, so it stays unset here.
	txns = append(txns, &models.InventoryTransaction{
		Pcode:     formula.OutputPcode,
		StoreCode: input.StoreCode,
		TxnDate:   now,
		Qty:       outputQty,
		Kind:      models.TransactionKindProductionOutput,
		RefType:   "LOT",
		RefId:     lot.LotId,
	})

	return lot, txns, warnings, nil
}
