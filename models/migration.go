package models

import (
	"log"

	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{}, &Store{},
		&Formula{}, &FormulaInput{},
		&ProductionLot{}, &LotAdditive{},
		&InventoryTransaction{}, &CostBasis{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
