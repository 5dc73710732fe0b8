package models_test

import (
	"strings"
	"testing"

	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
)

func TestNewLotId_Format(t *testing.T) {
	id := models.NewLotId("COT", "ST01")
	if !strings.HasPrefix(id, "COT-ST01-") {
		t.Fatalf("lot id %q missing prefix and store", id)
	}
}

// Two lots in the same millisecond for the same store+prefix must still
// get distinct ids within one process.
func TestNewLotId_DistinctWithinSameMillisecond(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := models.NewLotId("COT", "ST01")
		if seen[id] {
			t.Fatalf("duplicate lot id %q at iteration %d", id, i)
		}
		seen[id] = true
	}
}
