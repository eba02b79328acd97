// internal/report/csv.go
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// WritePredictionsCSV writes the per-day forecast table in the layout the
// downstream ordering sheet expects.
func WritePredictionsCSV(path string, predictions []domain.Prediction) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{
		"date", "branch_id", "product_id", "predicted_sales",
		"stock_requirement", "current_stock", "reorder_needed", "reorder_quantity",
	}
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range predictions {
		rec := []string{
			p.Date.Format("2006-01-02"),
			strconv.Itoa(p.BranchID),
			strconv.Itoa(p.ProductID),
			strconv.Itoa(p.PredictedSales),
			strconv.Itoa(p.StockRequirement),
			strconv.Itoa(p.CurrentStock),
			strconv.FormatBool(p.ReorderNeeded),
			strconv.Itoa(p.ReorderQuantity),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write prediction row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// WriteRecommendationsCSV writes the per-entity recommendation records.
func WriteRecommendationsCSV(path string, recs []domain.Recommendation) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{
		"branch_id", "product_id", "product_name", "forecast_date",
		"predicted_units", "predicted_revenue", "predicted_profit",
		"current_stock", "required_stock", "stock_gap", "status",
		"best_discount_pct", "best_profit", "suggestion",
	}
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range recs {
		rec := []string{
			strconv.Itoa(r.BranchID),
			strconv.Itoa(r.ProductID),
			r.ProductName,
			r.ForecastDate.Format("2006-01-02"),
			formatFloat(r.PredictedUnits),
			formatFloat(r.PredictedRevenue),
			formatFloat(r.PredictedProfit),
			formatFloat(r.CurrentStock),
			formatFloat(r.RequiredStock),
			formatFloat(r.StockGap),
			string(r.Status),
			formatFloat(r.BestDiscountPct),
			formatFloat(r.BestProfit),
			r.Suggestion,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write recommendation row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
