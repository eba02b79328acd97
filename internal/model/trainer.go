package model

import (
	"errors"
	"fmt"
)

// ErrDegenerateTrainingSet aborts the run when too few rows survive feature
// engineering to fit anything meaningful.
var ErrDegenerateTrainingSet = errors.New("degenerate training set")

// TrainerConfig controls model selection.
type TrainerConfig struct {
	// HoldoutFraction of the chronologically last rows reserved for scoring
	// the candidate families. Selection is always on a chronological tail,
	// never a random split.
	HoldoutFraction float64
	// MinRowsPerFeature is the fail-fast floor: training needs at least
	// MinRowsPerFeature * featureCount rows.
	MinRowsPerFeature int
	GBRT              GBRTConfig
}

// DefaultTrainerConfig returns the production training settings.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		HoldoutFraction:   0.2,
		MinRowsPerFeature: 2,
		GBRT:              DefaultGBRTConfig(),
	}
}

// TrainResult carries the selected model and the scores of every family.
type TrainResult struct {
	Model    FittedModel
	Selected string
	Families map[string]Metrics
	Rows     int
	Holdout  int
}

// Train fits the gradient-boosting and linear families on a chronological
// split, scores them on the holdout, picks the higher R², and refits the
// winner on the full data. x must be ordered chronologically.
func Train(x [][]float64, y []float64, cfg TrainerConfig) (*TrainResult, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("%w: no training rows", ErrDegenerateTrainingSet)
	}
	nFeatures := len(x[0])
	minRows := cfg.MinRowsPerFeature * nFeatures
	if cfg.MinRowsPerFeature <= 0 {
		minRows = 2 * nFeatures
	}
	if n < minRows {
		return nil, fmt.Errorf("%w: %d rows after feature engineering, need at least %d",
			ErrDegenerateTrainingSet, n, minRows)
	}

	frac := cfg.HoldoutFraction
	if frac <= 0 || frac >= 1 {
		frac = 0.2
	}
	holdout := int(float64(n) * frac)
	if holdout < 1 {
		holdout = 1
	}
	split := n - holdout

	trainX, trainY := x[:split], y[:split]
	testX, testY := x[split:], y[split:]

	type candidate struct {
		name string
		fit  func(x [][]float64, y []float64) (FittedModel, error)
	}
	candidates := []candidate{
		{
			name: "gradient_boosting",
			fit: func(x [][]float64, y []float64) (FittedModel, error) {
				return FitGBRT(x, y, cfg.GBRT)
			},
		},
		{
			name: "linear_regression",
			fit: func(x [][]float64, y []float64) (FittedModel, error) {
				return FitLinear(x, y)
			},
		},
	}

	result := &TrainResult{
		Families: make(map[string]Metrics, len(candidates)),
		Rows:     n,
		Holdout:  holdout,
	}

	bestR2 := 0.0
	var bestFit func(x [][]float64, y []float64) (FittedModel, error)

	for _, c := range candidates {
		m, err := c.fit(trainX, trainY)
		if err != nil {
			return nil, fmt.Errorf("training %s: %w", c.name, err)
		}

		predicted := make([]float64, len(testX))
		for i, row := range testX {
			predicted[i] = m.Predict(row)
		}
		metrics := Evaluate(predicted, testY)
		result.Families[c.name] = metrics

		if result.Selected == "" || metrics.R2 > bestR2 {
			result.Selected = c.name
			bestR2 = metrics.R2
			bestFit = c.fit
		}
	}

	// Refit the winning family on all available data for the final model.
	final, err := bestFit(x, y)
	if err != nil {
		return nil, fmt.Errorf("refitting %s: %w", result.Selected, err)
	}
	result.Model = final

	return result, nil
}
