package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func makeRecords(branch, product int, quantities []float64) []domain.TransactionRecord {
	records := make([]domain.TransactionRecord, 0, len(quantities))
	for i, q := range quantities {
		records = append(records, domain.TransactionRecord{
			Date:         day(i),
			BranchID:     branch,
			ProductID:    product,
			QuantitySold: q,
			SellingPrice: 50,
			CostPrice:    20,
			CurrentStock: 30,
		})
	}
	return records
}

func TestBuildLagAndRollingFeatures(t *testing.T) {
	table, err := Build(makeRecords(1, 1, []float64{10, 12, 8, 9, 11}))
	require.NoError(t, err)

	hist := table.History(domain.EntityKey{BranchID: 1, ProductID: 1})
	require.Len(t, hist, 5)

	// first row has no prior history at all
	assert.False(t, hist[0].HasLags)
	assert.False(t, hist[0].HasRollingMean)

	// second row: one prior period, partial rolling window
	assert.False(t, hist[1].HasLags)
	assert.True(t, hist[1].HasRollingMean)
	assert.InDelta(t, 10.0, hist[1].RollingMean4, 1e-9)

	// fifth row: full lag set and full window
	last := hist[4]
	require.True(t, last.HasLags)
	assert.Equal(t, [NumLags]float64{9, 8, 12, 10}, last.Lags)
	require.True(t, last.HasRollingMean)
	assert.InDelta(t, 9.75, last.RollingMean4, 1e-9)
}

func TestBuildEntitiesAreIsolated(t *testing.T) {
	records := append(
		makeRecords(1, 1, []float64{10, 12, 8, 9, 11}),
		makeRecords(2, 5, []float64{100, 200, 300, 400, 500})...,
	)
	table, err := Build(records)
	require.NoError(t, err)

	entities := table.Entities()
	require.Equal(t, []domain.EntityKey{
		{BranchID: 1, ProductID: 1},
		{BranchID: 2, ProductID: 5},
	}, entities)

	// the high-volume entity must not bleed into the first entity's lags
	first := table.History(entities[0])[4]
	assert.Equal(t, [NumLags]float64{9, 8, 12, 10}, first.Lags)

	second := table.History(entities[1])[4]
	assert.Equal(t, [NumLags]float64{400, 300, 200, 100}, second.Lags)
	assert.InDelta(t, 250.0, second.RollingMean4, 1e-9)
}

func TestBuildUnsortedInputIsSorted(t *testing.T) {
	records := makeRecords(1, 1, []float64{10, 12, 8, 9, 11})
	// shuffle: newest first
	reversed := make([]domain.TransactionRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		reversed = append(reversed, records[i])
	}

	table, err := Build(reversed)
	require.NoError(t, err)

	hist := table.History(domain.EntityKey{BranchID: 1, ProductID: 1})
	require.Len(t, hist, 5)
	assert.Equal(t, 10.0, hist[0].QuantitySold)
	assert.Equal(t, [NumLags]float64{9, 8, 12, 10}, hist[4].Lags)
}

func TestTrainingMatrixOnlyCompleteRows(t *testing.T) {
	records := append(
		makeRecords(1, 1, []float64{10, 12, 8, 9, 11, 7}),
		makeRecords(2, 5, []float64{5, 6})..., // never enough history
	)
	table, err := Build(records)
	require.NoError(t, err)

	x, y, err := table.TrainingMatrix()
	require.NoError(t, err)
	// only rows 5 and 6 of the first entity have all four lags
	require.Len(t, x, 2)
	require.Equal(t, []float64{11, 7}, y)

	// fixed column order: lag_1..lag_4, rolling_mean_4, price, discount, festival, week, month
	require.Len(t, x[0], len(ModelColumns))
	assert.Equal(t, 9.0, x[0][0])
	assert.Equal(t, 10.0, x[0][3])
	assert.InDelta(t, 9.75, x[0][4], 1e-9)
	assert.Equal(t, 50.0, x[0][5])
}

func TestBuildImputesProfitMargin(t *testing.T) {
	records := makeRecords(1, 1, []float64{10, 12, 8})
	records[1].CostPrice = 0 // margin undefined for this row

	table, err := Build(records)
	require.NoError(t, err)

	hist := table.History(domain.EntityKey{BranchID: 1, ProductID: 1})
	// rows with cost 20 and price 50 have margin 1.5; the undefined row takes
	// the column median
	assert.InDelta(t, 1.5, hist[0].ProfitMargin, 1e-9)
	assert.InDelta(t, 1.5, hist[1].ProfitMargin, 1e-9)
}

func TestVectorValidateRejectsNaN(t *testing.T) {
	vec := Vector{Lag1: 1, SellingPrice: 50}
	require.NoError(t, vec.Validate())

	vec.RollingMean4 = math.NaN()
	err := vec.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFeature)
}

func TestBuildEmptyInput(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
}
