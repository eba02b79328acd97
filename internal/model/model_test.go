package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePerfectPredictions(t *testing.T) {
	actual := []float64{3, 5, 8, 13, 21}
	m := Evaluate(actual, actual)
	assert.InDelta(t, 0.0, m.MAE, 1e-12)
	assert.InDelta(t, 0.0, m.RMSE, 1e-12)
	assert.InDelta(t, 1.0, m.R2, 1e-12)
}

func TestEvaluateKnownErrors(t *testing.T) {
	actual := []float64{10, 20, 30, 40}
	predicted := []float64{12, 18, 33, 37}
	m := Evaluate(predicted, actual)
	assert.InDelta(t, 2.5, m.MAE, 1e-9)
	assert.Greater(t, m.RMSE, m.MAE-1e-9)
	assert.Less(t, m.R2, 1.0)
	assert.Greater(t, m.R2, 0.9)
}

func TestFitLinearRecoversCoefficients(t *testing.T) {
	// y = 1 + 2a - 3b, exactly
	x := make([][]float64, 0, 20)
	y := make([]float64, 0, 20)
	for a := 0; a < 5; a++ {
		for b := 0; b < 4; b++ {
			x = append(x, []float64{float64(a), float64(b)})
			y = append(y, 1+2*float64(a)-3*float64(b))
		}
	}

	m, err := FitLinear(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Intercept, 1e-8)
	require.Len(t, m.Coefs, 2)
	assert.InDelta(t, 2.0, m.Coefs[0], 1e-8)
	assert.InDelta(t, -3.0, m.Coefs[1], 1e-8)

	assert.InDelta(t, 1+2*10-3*2, m.Predict([]float64{10, 2}), 1e-6)
}

func TestFitLinearRejectsUnderdetermined(t *testing.T) {
	x := [][]float64{{1, 2, 3}, {4, 5, 6}}
	y := []float64{1, 2}
	_, err := FitLinear(x, y)
	require.Error(t, err)
}

func TestFitGBRTLearnsStepFunction(t *testing.T) {
	// piecewise constant target: 0 below the threshold, 10 above
	x := make([][]float64, 0, 100)
	y := make([]float64, 0, 100)
	for i := 0; i < 100; i++ {
		v := float64(i % 10)
		x = append(x, []float64{v})
		if v < 5 {
			y = append(y, 0)
		} else {
			y = append(y, 10)
		}
	}

	m, err := FitGBRT(x, y, GBRTConfig{Estimators: 300, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 2})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, m.Predict([]float64{2}), 0.2)
	assert.InDelta(t, 10.0, m.Predict([]float64{7}), 0.2)
}

func TestFitGBRTConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{5, 5, 5, 5}

	m, err := FitGBRT(x, y, DefaultGBRTConfig())
	require.NoError(t, err)
	// residuals are zero after the base prediction, so no trees are needed
	assert.InDelta(t, 5.0, m.Predict([]float64{9}), 1e-12)
}

func TestTrainSelectsLinearOnTrend(t *testing.T) {
	// pure linear trend: the holdout tail lies beyond the training range, so
	// the tree ensemble cannot extrapolate and the linear family must win
	x := make([][]float64, 0, 60)
	y := make([]float64, 0, 60)
	for i := 0; i < 60; i++ {
		x = append(x, []float64{float64(i)})
		y = append(y, 4+0.5*float64(i))
	}

	result, err := Train(x, y, DefaultTrainerConfig())
	require.NoError(t, err)
	assert.Equal(t, "linear_regression", result.Selected)
	require.Contains(t, result.Families, "linear_regression")
	require.Contains(t, result.Families, "gradient_boosting")
	assert.InDelta(t, 1.0, result.Families["linear_regression"].R2, 1e-6)
	assert.Equal(t, 60, result.Rows)
	assert.Equal(t, 12, result.Holdout)

	// final model is refit on all data
	assert.InDelta(t, 4+0.5*59, result.Model.Predict([]float64{59}), 1e-6)
}

func TestTrainFailsOnTooFewRows(t *testing.T) {
	x := [][]float64{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		{2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}
	y := []float64{1, 2}

	_, err := Train(x, y, DefaultTrainerConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateTrainingSet)
}

func TestTrainEmptyInput(t *testing.T) {
	_, err := Train(nil, nil, DefaultTrainerConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateTrainingSet)
}
