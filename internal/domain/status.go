package domain

import "strings"

// StockStatus classifies the gap between required and current stock.
type StockStatus string

const (
	StatusOK            StockStatus = "ok"
	StatusRestockNeeded StockStatus = "restock_needed"
	StatusOverstocked   StockStatus = "overstocked"
)

var stockStatusLabels = map[StockStatus]string{
	StatusOK:            "OK",
	StatusRestockNeeded: "RESTOCK NEEDED",
	StatusOverstocked:   "OVERSTOCKED",
}

// Label returns a human-readable label for a stock status.
func (s StockStatus) Label() string {
	if label, ok := stockStatusLabels[s]; ok {
		return label
	}

	return "UNKNOWN"
}

// ParseStockStatus returns the status for a given label (case-insensitive).
func ParseStockStatus(label string) (StockStatus, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
	switch StockStatus(normalized) {
	case StatusOK, StatusRestockNeeded, StatusOverstocked:
		return StockStatus(normalized), true
	}

	return "", false
}

// ClassifyStockGap applies the strict-threshold rule: a positive gap means
// restock, a gap below -overstockThreshold means overstocked, anything in
// between (both boundaries included) is OK.
func ClassifyStockGap(gap, overstockThreshold float64) StockStatus {
	switch {
	case gap > 0:
		return StatusRestockNeeded
	case gap < -overstockThreshold:
		return StatusOverstocked
	default:
		return StatusOK
	}
}
