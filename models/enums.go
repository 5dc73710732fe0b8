package models

import (
	"errors"
)

type ProductCategory string

const (
	ProductCategoryRawFruit    ProductCategory = "RAW_FRUIT"
	ProductCategoryConcentrate ProductCategory = "CONCENTRATE"
	ProductCategoryJam         ProductCategory = "JAM"
	ProductCategoryAdditive    ProductCategory = "ADDITIVE"
	ProductCategoryOther       ProductCategory = "OTHER"
)

func ParseProductCategory(s string) (ProductCategory, error) {
	switch ProductCategory(s) {
	case ProductCategoryRawFruit, ProductCategoryConcentrate, ProductCategoryJam,
		ProductCategoryAdditive, ProductCategoryOther:
		return ProductCategory(s), nil
	}
	return "", errors.New("invalid product category")
}

type FormulaType string

const (
	FormulaTypeConcentrate FormulaType = "CONCENTRATE"
	FormulaTypeJam         FormulaType = "JAM"
)

func ParseFormulaType(s string) (FormulaType, error) {
	switch FormulaType(s) {
	case FormulaTypeConcentrate, FormulaTypeJam:
		return FormulaType(s), nil
	}
	return "", errors.New("invalid formula type")
}

// OutputCategory is the product category a formula of this type produces.
func (t FormulaType) OutputCategory() ProductCategory {
	if t == FormulaTypeJam {
		return ProductCategoryJam
	}
	return ProductCategoryConcentrate
}

// PrimaryCategory is the category withdrawals must be drawn from:
// raw fruit for concentrates, concentrate for jams.
func (t FormulaType) PrimaryCategory() ProductCategory {
	if t == FormulaTypeJam {
		return ProductCategoryConcentrate
	}
	return ProductCategoryRawFruit
}

// LotIdPrefix denotes the recipe type in generated lot identifiers.
func (t FormulaType) LotIdPrefix() string {
	if t == FormulaTypeJam {
		return "MUT"
	}
	return "COT"
}

type FormulaInputKind string

const (
	FormulaInputKindPrimary  FormulaInputKind = "PRIMARY"
	FormulaInputKindAdditive FormulaInputKind = "ADDITIVE"
)

type TransactionKind string

const (
	TransactionKindProductionConsume TransactionKind = "PRODUCTION_CONSUME"
	TransactionKindProductionOutput  TransactionKind = "PRODUCTION_OUTPUT"
	TransactionKindPurchase          TransactionKind = "PURCHASE"
	TransactionKindSale              TransactionKind = "SALE"
	TransactionKindAdjustment        TransactionKind = "ADJUSTMENT"
)

func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case TransactionKindProductionConsume, TransactionKindProductionOutput,
		TransactionKindPurchase, TransactionKindSale, TransactionKindAdjustment:
		return TransactionKind(s), nil
	}
	return "", errors.New("invalid transaction kind")
}

type LotStatus string

const (
	// Lots have no further lifecycle here; corrections are issued as
	// compensating inventory transactions, never by mutating the lot.
	LotStatusCreated LotStatus = "Created"
)

// Warning is a non-fatal validation outcome returned alongside a
// successful result (dry runs, over-consumption beyond recorded stock).
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarningCodeDryRun          = "DRY_RUN"
	WarningCodeOverConsumption = "OVER_CONSUMPTION"
	WarningCodeZeroOutputValue = "ZERO_OUTPUT_VALUE"
)
