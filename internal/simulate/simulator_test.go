package simulate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/features"
	"github.com/andresuchdata/demandcast/internal/forecast"
)

// discountSensitiveModel predicts demand as a function of the discount column
// so scenario profits are fully controlled by the test.
type discountSensitiveModel struct {
	base    float64
	perDisc float64
}

func (m *discountSensitiveModel) Predict(f []float64) float64 {
	return m.base + m.perDisc*f[6] // column 6 is discount_percentage
}

func (m *discountSensitiveModel) Name() string { return "stub" }

func buildForecaster(t *testing.T, cost float64, m *discountSensitiveModel) (*forecast.Forecaster, domain.EntityKey) {
	t.Helper()
	records := make([]domain.TransactionRecord, 0, 5)
	for i, q := range []float64{10, 12, 8, 9, 11} {
		records = append(records, domain.TransactionRecord{
			Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			BranchID:     2,
			ProductID:    3,
			QuantitySold: q,
			SellingPrice: 50,
			CostPrice:    cost,
			DiscountPct:  0,
			CurrentStock: 25,
		})
	}
	table, err := features.Build(records)
	require.NoError(t, err)
	return forecast.New(m, table), domain.EntityKey{BranchID: 2, ProductID: 3}
}

func TestSimulatePicksMostProfitableDiscount(t *testing.T) {
	// q = 10 + disc: d=0 -> profit 300, d=10 -> 500, d=20 -> 600, d=30 -> 600.
	// The 30% tie must not displace the 20% incumbent.
	f, key := buildForecaster(t, 20, &discountSensitiveModel{base: 10, perDisc: 1})
	s := New(f, nil)

	baseline, err := f.Forecast(key)
	require.NoError(t, err)

	res, err := s.Simulate(baseline)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, 20.0, res.Best.DiscountPct)
	assert.InDelta(t, 40.0, res.Best.Price, 1e-9)
	assert.InDelta(t, 600.0, res.Best.Profit, 1e-9)
	assert.Equal(t, 4, res.Evaluated)
	assert.Equal(t, 0, res.Rejected)
	assert.Contains(t, res.Suggestion, "Change discount to 20%")
}

func TestSimulateKeepsBaselineOnTie(t *testing.T) {
	// demand is flat, so deeper discounts only cut margin and the zero-discount
	// candidate exactly matches the baseline; nothing strictly improves
	f, key := buildForecaster(t, 20, &discountSensitiveModel{base: 10})
	s := New(f, nil)

	baseline, err := f.Forecast(key)
	require.NoError(t, err)

	res, err := s.Simulate(baseline)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, res.Baseline, res.Best)
	assert.Equal(t, "Maintain current strategy", res.Suggestion)
}

func TestSimulateRejectsBelowCostScenarios(t *testing.T) {
	// cost 40: d=20 prices at exactly cost, d=30 below cost; both rejected
	f, key := buildForecaster(t, 40, &discountSensitiveModel{base: 10, perDisc: 1})
	s := New(f, nil)

	baseline, err := f.Forecast(key)
	require.NoError(t, err)

	res, err := s.Simulate(baseline)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Evaluated)
	assert.Equal(t, 2, res.Rejected)
	for _, d := range []float64{20, 30} {
		assert.NotEqual(t, d, res.Best.DiscountPct)
	}
}

func TestSimulateInvalidPriceState(t *testing.T) {
	f, key := buildForecaster(t, 20, &discountSensitiveModel{base: 10})
	s := New(f, nil)

	baseline := forecast.Result{
		Key:          key,
		Units:        10,
		SellingPrice: 0,
		CostPrice:    20,
		DiscountPct:  100,
		Profit:       -200,
	}

	res, err := s.Simulate(baseline)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPriceState)
	// caller still gets a usable baseline-only result
	assert.Equal(t, res.Baseline, res.Best)
	assert.Equal(t, "Maintain current strategy", res.Suggestion)
}

func TestSimulateCustomGrid(t *testing.T) {
	f, key := buildForecaster(t, 20, &discountSensitiveModel{base: 10, perDisc: 1})
	s := New(f, []float64{0, 5})

	baseline, err := f.Forecast(key)
	require.NoError(t, err)

	res, err := s.Simulate(baseline)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Evaluated)
}
