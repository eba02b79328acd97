// internal/report/summary.go
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/pipeline"
	"github.com/andresuchdata/demandcast/internal/recommend"
)

// CriticalReorderThreshold flags prediction rows whose reorder quantity is
// large enough to need manual attention.
const CriticalReorderThreshold = 50

const topN = 10

// BuildSummary renders the human-readable run report: totals, ranked views,
// the daily breakdown, critical alerts and model scores.
func BuildSummary(result *pipeline.RunResult, generatedAt time.Time) string {
	var b strings.Builder

	line := strings.Repeat("=", 70)
	b.WriteString(line + "\n")
	b.WriteString("DEMAND FORECAST AND REORDER REPORT\n")
	b.WriteString("Generated: " + generatedAt.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(line + "\n\n")

	writeExecutiveSummary(&b, result)
	writeWeeklySummary(&b, result.Predictions)
	writeTopProducts(&b, result.Recommendations)
	writeDailyBreakdown(&b, result.Predictions)
	writeCriticalAlerts(&b, result.Predictions)
	writeRecommendations(&b, result.Recommendations)
	writeModelMetrics(&b, result.Stats)

	b.WriteString(line + "\n")
	b.WriteString("END OF REPORT\n")
	b.WriteString(line + "\n")
	return b.String()
}

// WriteSummary renders the report and writes it to path.
func WriteSummary(path string, result *pipeline.RunResult, generatedAt time.Time) error {
	content := BuildSummary(result, generatedAt)
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// WriteSummaryStdout is a convenience for the CLI's console output.
func WriteSummaryStdout(result *pipeline.RunResult, generatedAt time.Time) {
	fmt.Fprint(os.Stdout, BuildSummary(result, generatedAt))
}

func writeExecutiveSummary(b *strings.Builder, result *pipeline.RunResult) {
	s := result.Stats

	restock, overstock := 0, 0
	for _, r := range result.Recommendations {
		switch r.Status {
		case domain.StatusRestockNeeded:
			restock++
		case domain.StatusOverstocked:
			overstock++
		}
	}

	b.WriteString("EXECUTIVE SUMMARY\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	fmt.Fprintf(b, "Input rows:               %d\n", s.InputRows)
	fmt.Fprintf(b, "Entities (branch,product): %d\n", s.Entities)
	fmt.Fprintf(b, "Recommendations:          %d\n", s.Recommendations)
	fmt.Fprintf(b, "  restock needed:         %d\n", restock)
	fmt.Fprintf(b, "  overstocked:            %d\n", overstock)
	fmt.Fprintf(b, "Skipped (short history):  %d\n", s.SkippedHistory)
	fmt.Fprintf(b, "Invalid price state:      %d\n", s.InvalidPrice)
	fmt.Fprintf(b, "Run duration:             %s\n\n", s.Duration.Round(time.Millisecond))
}

func writeWeeklySummary(b *strings.Builder, predictions []domain.Prediction) {
	totalSales, totalReorder := 0, 0
	reorderRows := 0
	for _, p := range predictions {
		totalSales += p.PredictedSales
		totalReorder += p.ReorderQuantity
		if p.ReorderNeeded {
			reorderRows++
		}
	}

	b.WriteString("WEEKLY FORECAST SUMMARY\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	fmt.Fprintf(b, "Total predicted sales:    %d units\n", totalSales)
	fmt.Fprintf(b, "Total reorder quantity:   %d units\n", totalReorder)
	fmt.Fprintf(b, "Rows needing reorder:     %d of %d\n\n", reorderRows, len(predictions))
}

func writeTopProducts(b *strings.Builder, recs []domain.Recommendation) {
	top := recommend.TopProducts(recs, topN)

	b.WriteString(fmt.Sprintf("TOP %d PRODUCTS BY PREDICTED DEMAND\n", topN))
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for i, r := range top {
		name := r.ProductName
		if name == "" {
			name = fmt.Sprintf("product %d", r.ProductID)
		}
		fmt.Fprintf(b, "%2d. branch %d / %s: %.1f units (profit %.2f)\n",
			i+1, r.BranchID, name, r.PredictedUnits, r.PredictedProfit)
	}
	b.WriteString("\n")
}

func writeDailyBreakdown(b *strings.Builder, predictions []domain.Prediction) {
	type dayTotals struct {
		sales   int
		reorder int
	}
	totals := make(map[time.Time]*dayTotals)
	days := make([]time.Time, 0)
	for _, p := range predictions {
		day := p.Date
		t, ok := totals[day]
		if !ok {
			t = &dayTotals{}
			totals[day] = t
			days = append(days, day)
		}
		t.sales += p.PredictedSales
		t.reorder += p.ReorderQuantity
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	b.WriteString("DAILY BREAKDOWN\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, day := range days {
		t := totals[day]
		fmt.Fprintf(b, "%s (%s): %d units predicted, %d units to reorder\n",
			day.Format("2006-01-02"), day.Weekday().String()[:3], t.sales, t.reorder)
	}
	b.WriteString("\n")
}

func writeCriticalAlerts(b *strings.Builder, predictions []domain.Prediction) {
	critical := recommend.CriticalReorders(predictions, CriticalReorderThreshold, topN)

	b.WriteString(fmt.Sprintf("CRITICAL REORDER ALERTS (> %d units)\n", CriticalReorderThreshold))
	b.WriteString(strings.Repeat("-", 70) + "\n")
	if len(critical) == 0 {
		b.WriteString("none\n\n")
		return
	}
	for _, p := range critical {
		fmt.Fprintf(b, "%s branch %d product %d: reorder %d units (stock %d, predicted %d)\n",
			p.Date.Format("2006-01-02"), p.BranchID, p.ProductID,
			p.ReorderQuantity, p.CurrentStock, p.PredictedSales)
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, recs []domain.Recommendation) {
	urgent := recommend.UrgentRestocks(recs, topN)

	b.WriteString("RECOMMENDED ACTIONS\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	if len(urgent) == 0 {
		b.WriteString("no urgent restocks\n\n")
		return
	}
	for _, r := range urgent {
		name := r.ProductName
		if name == "" {
			name = fmt.Sprintf("product %d", r.ProductID)
		}
		fmt.Fprintf(b, "branch %d / %s: order %.0f units (%s)\n",
			r.BranchID, name, r.StockGap, r.Status.Label())
		fmt.Fprintf(b, "    %s\n", r.Suggestion)
	}
	b.WriteString("\n")
}

func writeModelMetrics(b *strings.Builder, stats pipeline.RunStats) {
	b.WriteString("MODEL PERFORMANCE\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	fmt.Fprintf(b, "Selected family: %s\n", stats.SelectedModel)
	fmt.Fprintf(b, "Training rows:   %d (holdout %d)\n", stats.TrainingRows, stats.HoldoutRows)

	families := make([]string, 0, len(stats.ModelMetrics))
	for name := range stats.ModelMetrics {
		families = append(families, name)
	}
	sort.Strings(families)
	for _, name := range families {
		m := stats.ModelMetrics[name]
		fmt.Fprintf(b, "%-20s MAE %.3f  RMSE %.3f  R2 %.4f\n", name, m.MAE, m.RMSE, m.R2)
	}
	b.WriteString("\n")
}
