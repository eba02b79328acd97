package recommend

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
)

// festivalMonths is the calendar heuristic for horizon rows: months that
// commonly carry festival demand are flagged ahead of time.
var festivalMonths = map[time.Month]bool{
	time.January:  true,
	time.February: true,
	time.July:     true,
	time.August:   true,
	time.November: true,
	time.December: true,
}

// horizonSafetyStock is the buffer applied to each day's point forecast when
// sizing the stock requirement of the prediction table.
const horizonSafetyStock = 0.2

// BuildPredictionTable emits one row per (day, entity) for horizonDays days
// beyond the newest observation in the dataset. Each day is an independent
// single-step estimate at the entity's current price; this is deliberately
// not an autoregressive simulation. Entities without enough history are
// skipped.
func (a *Aggregator) BuildPredictionTable(horizonDays int) ([]domain.Prediction, error) {
	if horizonDays <= 0 {
		horizonDays = 7
	}

	entities := a.forecaster.Entities()
	lastDate := time.Time{}
	for _, key := range entities {
		hist := a.forecaster.History(key)
		if len(hist) == 0 {
			continue
		}
		if d := hist[len(hist)-1].Date; d.After(lastDate) {
			lastDate = d
		}
	}
	if lastDate.IsZero() {
		return nil, errors.New("prediction table: no dated history")
	}

	predictions := make([]domain.Prediction, 0, len(entities)*horizonDays)

	for day := 1; day <= horizonDays; day++ {
		target := lastDate.AddDate(0, 0, day)
		festival := 0
		if festivalMonths[target.Month()] {
			festival = 1
		}

		for _, key := range entities {
			res, err := a.forecaster.ForecastWith(key, forecast.Overrides{
				TargetDate:   &target,
				FestivalFlag: &festival,
			})
			if err != nil {
				if errors.Is(err, forecast.ErrInsufficientHistory) {
					continue
				}
				return nil, err
			}

			predicted := int(math.Round(res.Units))
			if predicted < 0 {
				predicted = 0
			}
			requirement := predicted + int(float64(predicted)*horizonSafetyStock)
			stock := int(res.CurrentStock)
			reorder := requirement - stock
			if reorder < 0 {
				reorder = 0
			}

			predictions = append(predictions, domain.Prediction{
				Date:             target,
				BranchID:         key.BranchID,
				ProductID:        key.ProductID,
				PredictedSales:   predicted,
				StockRequirement: requirement,
				CurrentStock:     stock,
				ReorderNeeded:    requirement > stock,
				ReorderQuantity:  reorder,
			})
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		a, b := predictions[i], predictions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.BranchID != b.BranchID {
			return a.BranchID < b.BranchID
		}
		return a.ProductID < b.ProductID
	})

	return predictions, nil
}

// CriticalReorders filters prediction rows above the reorder-quantity alert
// threshold, ranked by reorder quantity descending.
func CriticalReorders(predictions []domain.Prediction, threshold, n int) []domain.Prediction {
	critical := make([]domain.Prediction, 0)
	for _, p := range predictions {
		if p.ReorderQuantity > threshold {
			critical = append(critical, p)
		}
	}
	sort.SliceStable(critical, func(i, j int) bool {
		if critical[i].ReorderQuantity != critical[j].ReorderQuantity {
			return critical[i].ReorderQuantity > critical[j].ReorderQuantity
		}
		if critical[i].BranchID != critical[j].BranchID {
			return critical[i].BranchID < critical[j].BranchID
		}
		return critical[i].ProductID < critical[j].ProductID
	})
	if n > 0 && len(critical) > n {
		critical = critical[:n]
	}
	return critical
}
