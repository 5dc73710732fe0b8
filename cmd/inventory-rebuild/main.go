package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/workflow"
)

// Replays the inventory ledger into cost bases. With no --store flag it
// rebuilds every store that has ledger rows.
func main() {
	storeCode := flag.String("store", "", "Optional: store code. Default: all stores with ledger rows")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing stores and continue rebuilding others")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	var stores []string
	if strings.TrimSpace(*storeCode) != "" {
		stores = []string{strings.TrimSpace(*storeCode)}
	} else {
		if err := db.Model(&models.InventoryTransaction{}).
			Distinct("store_code").
			Order("store_code").
			Pluck("store_code", &stores).Error; err != nil {
			fmt.Fprintf(os.Stderr, "listing stores: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	failed := 0
	for _, store := range stores {
		if err := workflow.RebuildCostBasis(ctx, store); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "rebuild store=%s: %v\n", store, err)
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		fmt.Printf("rebuilt store=%s\n", store)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
