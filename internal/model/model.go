// internal/model/model.go
package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FittedModel maps a fixed-order feature vector to a demand estimate. Models
// are immutable after fitting and safe for concurrent read-only use.
type FittedModel interface {
	Predict(features []float64) float64
	Name() string
}

// Metrics holds the evaluation scores of one model family.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate computes MAE, RMSE and R² of predictions against actuals.
func Evaluate(predicted, actual []float64) Metrics {
	n := len(actual)
	if n == 0 || len(predicted) != n {
		return Metrics{R2: math.Inf(-1)}
	}

	var absSum, sqSum float64
	for i := range actual {
		d := predicted[i] - actual[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}

	return Metrics{
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(sqSum / float64(n)),
		R2:   stat.RSquaredFrom(predicted, actual, nil),
	}
}
