// internal/forecast/forecaster.go
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/features"
	"github.com/andresuchdata/demandcast/internal/model"
)

// ErrInsufficientHistory marks entities with fewer prior observations than
// the model's lag depth. Such entities are skipped, never extrapolated.
var ErrInsufficientHistory = errors.New("insufficient history for forecast")

// DefaultHorizon is the forecast step when no explicit target date is given.
const DefaultHorizon = 7 * 24 * time.Hour

// Result is a single-step point forecast for one entity.
type Result struct {
	Key          domain.EntityKey
	Date         time.Time
	Units        float64
	Revenue      float64
	Profit       float64
	SellingPrice float64
	CostPrice    float64
	DiscountPct  float64
	CurrentStock float64
	ProductName  string
}

// Overrides substitutes values into the next-period feature vector. Used by
// the decision simulator to re-forecast under candidate prices.
type Overrides struct {
	SellingPrice *float64
	DiscountPct  *float64
	FestivalFlag *int
	TargetDate   *time.Time
}

// Forecaster produces one-week-ahead demand estimates from an entity's most
// recent engineered state. The fitted model is shared read-only.
type Forecaster struct {
	model model.FittedModel
	table *features.Table
}

func New(m model.FittedModel, table *features.Table) *Forecaster {
	return &Forecaster{model: m, table: table}
}

// Forecast predicts demand for one period beyond the entity's latest known
// observation, at its current price and discount.
func (f *Forecaster) Forecast(key domain.EntityKey) (Result, error) {
	return f.ForecastWith(key, Overrides{})
}

// ForecastWith predicts demand with selected feature substitutions. The lag
// cascade and rolling mean follow the feature builder's definitions exactly:
// the next period's lag_1 is the latest observed quantity, lag_2..lag_4 shift
// down from the latest row's lags, and the rolling mean averages the cascaded
// window.
func (f *Forecaster) ForecastWith(key domain.EntityKey, ov Overrides) (Result, error) {
	hist := f.table.History(key)
	if len(hist) < features.NumLags {
		return Result{}, fmt.Errorf("%w: entity %d/%d has %d of %d required observations",
			ErrInsufficientHistory, key.BranchID, key.ProductID, len(hist), features.NumLags)
	}

	latest := hist[len(hist)-1]

	// cascade: newest observation becomes lag_1, prior lags shift down
	cascade := [features.NumLags]float64{
		latest.QuantitySold,
		latest.Lags[0],
		latest.Lags[1],
		latest.Lags[2],
	}
	rolling := 0.0
	for _, v := range cascade {
		rolling += v
	}
	rolling /= float64(len(cascade))

	target := latest.Date.Add(DefaultHorizon)
	if ov.TargetDate != nil {
		target = *ov.TargetDate
	}
	_, week := target.ISOWeek()

	price := latest.SellingPrice
	if ov.SellingPrice != nil {
		price = *ov.SellingPrice
	}
	discount := latest.DiscountPct
	if ov.DiscountPct != nil {
		discount = *ov.DiscountPct
	}
	// next period assumed non-festival unless the caller says otherwise
	festival := 0
	if ov.FestivalFlag != nil {
		festival = *ov.FestivalFlag
	}

	vec := features.Vector{
		Lag1:         cascade[0],
		Lag2:         cascade[1],
		Lag3:         cascade[2],
		Lag4:         cascade[3],
		RollingMean4: rolling,
		SellingPrice: price,
		DiscountPct:  discount,
		FestivalFlag: festival,
		Week:         week,
		Month:        int(target.Month()),
	}
	if err := vec.Validate(); err != nil {
		return Result{}, fmt.Errorf("entity %d/%d: %w", key.BranchID, key.ProductID, err)
	}

	units := f.model.Predict(vec.Values())
	if units < 0 {
		units = 0
	}

	return Result{
		Key:          key,
		Date:         target,
		Units:        units,
		Revenue:      units * price,
		Profit:       units * (price - latest.CostPrice),
		SellingPrice: price,
		CostPrice:    latest.CostPrice,
		DiscountPct:  discount,
		CurrentStock: latest.CurrentStock,
		ProductName:  latest.ProductName,
	}, nil
}

// History exposes the entity's engineered rows for callers that need the
// latest known state without re-deriving it.
func (f *Forecaster) History(key domain.EntityKey) []features.Row {
	return f.table.History(key)
}

// Entities lists every entity in the engineered table.
func (f *Forecaster) Entities() []domain.EntityKey {
	return f.table.Entities()
}
