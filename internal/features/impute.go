package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// imputeRatios fills NaN business ratios with the column median over the full
// engineered table, falling back to zero when a column has no finite values
// at all. Lag and rolling columns are never imputed here: rows without
// sufficient history are excluded from training instead, and the forecaster
// refuses entities below the history threshold.
func (t *Table) imputeRatios() {
	medVelocity := columnMedian(t.Rows, func(r Row) float64 { return r.StockVelocity })
	medMargin := columnMedian(t.Rows, func(r Row) float64 { return r.ProfitMargin })

	for i := range t.Rows {
		if math.IsNaN(t.Rows[i].StockVelocity) || math.IsInf(t.Rows[i].StockVelocity, 0) {
			t.Rows[i].StockVelocity = medVelocity
		}
		if math.IsNaN(t.Rows[i].ProfitMargin) || math.IsInf(t.Rows[i].ProfitMargin, 0) {
			t.Rows[i].ProfitMargin = medMargin
		}
	}
}

func columnMedian(rows []Row, get func(Row) float64) float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		v := get(r)
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil)
}
