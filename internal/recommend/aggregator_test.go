package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/features"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/simulate"
)

// constantModel predicts the same demand for every entity.
type constantModel struct{ units float64 }

func (m *constantModel) Predict([]float64) float64 { return m.units }
func (m *constantModel) Name() string              { return "stub" }

func entityRecords(branch, product int, n int, stock float64) []domain.TransactionRecord {
	records := make([]domain.TransactionRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.TransactionRecord{
			Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			BranchID:     branch,
			ProductID:    product,
			QuantitySold: 10,
			SellingPrice: 50,
			CostPrice:    20,
			CurrentStock: stock,
		})
	}
	return records
}

func newAggregator(t *testing.T, records []domain.TransactionRecord, units float64, cfg Config) *Aggregator {
	t.Helper()
	table, err := features.Build(records)
	require.NoError(t, err)
	f := forecast.New(&constantModel{units: units}, table)
	s := simulate.New(f, []float64{0})
	return New(f, s, cfg, zerolog.Nop())
}

func TestRunSkipsShortHistoryEntities(t *testing.T) {
	records := append(
		entityRecords(1, 1, 5, 5),
		entityRecords(1, 2, 3, 5)..., // below the lag depth
	)
	a := newAggregator(t, records, 10, DefaultConfig())

	out, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, out.SkippedHistory)
	require.Len(t, out.Recommendations, 1)
	assert.Equal(t, 1, out.Recommendations[0].ProductID)
}

func TestRunComputesStockGapAndStatus(t *testing.T) {
	a := newAggregator(t, entityRecords(1, 1, 5, 5), 10, DefaultConfig())

	out, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 1)

	rec := out.Recommendations[0]
	assert.InDelta(t, 11.5, rec.RequiredStock, 1e-9) // 10 * 1.15
	assert.InDelta(t, 6.5, rec.StockGap, 1e-9)
	assert.Equal(t, domain.StatusRestockNeeded, rec.Status)
	assert.InDelta(t, 10*(50.0-20.0), rec.PredictedProfit, 1e-9)
}

func TestRunOverstockBoundaryIsStrict(t *testing.T) {
	// required = 11.5, stock = 31.5: gap is exactly -20, which stays ok
	a := newAggregator(t, entityRecords(1, 1, 5, 31.5), 10, DefaultConfig())

	out, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 1)
	assert.Equal(t, domain.StatusOK, out.Recommendations[0].Status)

	// one unit more of stock crosses the threshold
	a = newAggregator(t, entityRecords(1, 1, 5, 32.5), 10, DefaultConfig())
	out, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverstocked, out.Recommendations[0].Status)
}

func TestRunInvalidPriceStateDegradesToBaseline(t *testing.T) {
	records := entityRecords(1, 1, 5, 5)
	for i := range records {
		records[i].DiscountPct = 100
	}
	a := newAggregator(t, records, 10, DefaultConfig())

	out, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, out.InvalidPrice)
	require.Len(t, out.Recommendations, 1)
	assert.Equal(t, "Maintain current strategy", out.Recommendations[0].Suggestion)
}

func TestRunDeterministicOrder(t *testing.T) {
	records := entityRecords(2, 9, 5, 5)
	records = append(records, entityRecords(1, 3, 5, 5)...)
	records = append(records, entityRecords(1, 1, 5, 5)...)
	a := newAggregator(t, records, 10, Config{SafetyBuffer: 0.15, OverstockThreshold: 20, Workers: 8})

	out, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 3)

	keys := []domain.EntityKey{
		out.Recommendations[0].Key(),
		out.Recommendations[1].Key(),
		out.Recommendations[2].Key(),
	}
	assert.Equal(t, []domain.EntityKey{
		{BranchID: 1, ProductID: 1},
		{BranchID: 1, ProductID: 3},
		{BranchID: 2, ProductID: 9},
	}, keys)
}

func TestTopActionsTieBreaksByKey(t *testing.T) {
	recs := []domain.Recommendation{
		{BranchID: 2, ProductID: 1, PredictedProfit: 100},
		{BranchID: 1, ProductID: 2, PredictedProfit: 100},
		{BranchID: 1, ProductID: 1, PredictedProfit: 50},
	}

	top := TopActions(recs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, domain.EntityKey{BranchID: 1, ProductID: 2}, top[0].Key())
	assert.Equal(t, domain.EntityKey{BranchID: 2, ProductID: 1}, top[1].Key())
}

func TestTopProductsRanksByUnits(t *testing.T) {
	recs := []domain.Recommendation{
		{BranchID: 1, ProductID: 1, PredictedUnits: 5},
		{BranchID: 1, ProductID: 2, PredictedUnits: 50},
		{BranchID: 1, ProductID: 3, PredictedUnits: 20},
	}

	top := TopProducts(recs, 0)
	require.Len(t, top, 3)
	assert.Equal(t, 2, top[0].ProductID)
	assert.Equal(t, 3, top[1].ProductID)
	assert.Equal(t, 1, top[2].ProductID)
}

func TestUrgentRestocksFiltersPositiveGap(t *testing.T) {
	recs := []domain.Recommendation{
		{BranchID: 1, ProductID: 1, StockGap: 10, PredictedProfit: 100},
		{BranchID: 1, ProductID: 2, StockGap: -5, PredictedProfit: 900},
		{BranchID: 1, ProductID: 3, StockGap: 2, PredictedProfit: 300},
	}

	urgent := UrgentRestocks(recs, 0)
	require.Len(t, urgent, 2)
	assert.Equal(t, 3, urgent[0].ProductID)
	assert.Equal(t, 1, urgent[1].ProductID)
}
