package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStockGap(t *testing.T) {
	tests := []struct {
		name string
		gap  float64
		want StockStatus
	}{
		{"zero gap is ok", 0, StatusOK},
		{"tiny positive gap needs restock", 0.001, StatusRestockNeeded},
		{"large positive gap needs restock", 35, StatusRestockNeeded},
		{"small surplus is ok", -5, StatusOK},
		{"surplus at the threshold is ok", -20, StatusOK},
		{"surplus past the threshold is overstocked", -20.001, StatusOverstocked},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyStockGap(tc.gap, 20))
		})
	}
}

func TestStockStatusLabel(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.Label())
	assert.Equal(t, "RESTOCK NEEDED", StatusRestockNeeded.Label())
	assert.Equal(t, "OVERSTOCKED", StatusOverstocked.Label())
	assert.Equal(t, "UNKNOWN", StockStatus("bogus").Label())
}

func TestParseStockStatus(t *testing.T) {
	status, ok := ParseStockStatus("Restock Needed")
	assert.True(t, ok)
	assert.Equal(t, StatusRestockNeeded, status)

	_, ok = ParseStockStatus("nonsense")
	assert.False(t, ok)
}

func TestEntityKeyLess(t *testing.T) {
	assert.True(t, EntityKey{1, 2}.Less(EntityKey{2, 1}))
	assert.True(t, EntityKey{1, 2}.Less(EntityKey{1, 3}))
	assert.False(t, EntityKey{1, 2}.Less(EntityKey{1, 2}))
}
