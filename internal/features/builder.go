// internal/features/builder.go
package features

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/andresuchdata/demandcast/internal/domain"
)

const (
	// NumLags is the number of ordinal lag features (lag_1..lag_4).
	NumLags = 4
	// RollingWindow is the window of the trailing rolling mean. The window
	// always excludes the current row (shift-by-one before windowing) and
	// tolerates partial windows down to a single prior period.
	RollingWindow = 4
	// RollingMinPeriods is the minimum number of prior periods before the
	// rolling mean is defined. Applied identically at train and inference time.
	RollingMinPeriods = 1
)

// ModelColumns is the fixed, ordered feature set of the demand model. The
// training matrix and every prediction-time vector are built in exactly this
// order.
var ModelColumns = []string{
	"lag_1", "lag_2", "lag_3", "lag_4", "rolling_mean_4",
	"selling_price", "discount_percentage", "festival_flag",
	"week", "month",
}

// ErrMissingFeature indicates a non-finite value reached the feature matrix
// boundary. Engineering must never let a NaN propagate into the model.
var ErrMissingFeature = errors.New("missing or non-finite feature value")

// Row is a TransactionRecord extended with engineered features. Lag and
// rolling fields for entity E at time T are derived exclusively from E's
// records before T.
type Row struct {
	domain.TransactionRecord

	Lags    [NumLags]float64
	HasLags bool // all NumLags lag slots are populated

	RollingMean4   float64
	HasRollingMean bool

	Week      int
	Month     int
	DayOfWeek int

	StockVelocity float64
	ProfitMargin  float64
}

// Vector is the fixed-order input of the demand model. Price and discount are
// plain fields so the decision simulator can substitute candidate values
// without re-deriving the lag state.
type Vector struct {
	Lag1, Lag2, Lag3, Lag4 float64
	RollingMean4           float64
	SellingPrice           float64
	DiscountPct            float64
	FestivalFlag           int
	Week                   int
	Month                  int
}

// Values returns the vector in ModelColumns order.
func (v Vector) Values() []float64 {
	return []float64{
		v.Lag1, v.Lag2, v.Lag3, v.Lag4, v.RollingMean4,
		v.SellingPrice, v.DiscountPct, float64(v.FestivalFlag),
		float64(v.Week), float64(v.Month),
	}
}

// Validate rejects non-finite values before they reach the model.
func (v Vector) Validate() error {
	for i, val := range v.Values() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: column %s", ErrMissingFeature, ModelColumns[i])
		}
	}
	return nil
}

// Vector maps an engineered row into the model's input order.
func (r Row) Vector() Vector {
	return Vector{
		Lag1:         r.Lags[0],
		Lag2:         r.Lags[1],
		Lag3:         r.Lags[2],
		Lag4:         r.Lags[3],
		RollingMean4: r.RollingMean4,
		SellingPrice: r.SellingPrice,
		DiscountPct:  r.DiscountPct,
		FestivalFlag: r.FestivalFlag,
		Week:         r.Week,
		Month:        r.Month,
	}
}

// Complete reports whether the row has enough entity history to be used for
// training: all lags populated and a defined rolling mean.
func (r Row) Complete() bool {
	return r.HasLags && r.HasRollingMean
}

// Table is the engineered feature table for one dataset: every input row with
// its derived features, grouped per entity in chronological order.
type Table struct {
	Rows     []Row
	byEntity map[domain.EntityKey][]int // indexes into Rows, chronological
	entities []domain.EntityKey
}

// Build engineers the feature table from raw transaction records. Records are
// stable-sorted by (branch, product, date), so ties on the same entity and
// date keep their input order deterministically. Lag-N and rolling-mean
// features are computed strictly within each entity's own prior history.
func Build(records []domain.TransactionRecord) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to engineer")
	}

	sorted := make([]domain.TransactionRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BranchID != b.BranchID {
			return a.BranchID < b.BranchID
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.Date.Before(b.Date)
	})

	t := &Table{
		Rows:     make([]Row, 0, len(sorted)),
		byEntity: make(map[domain.EntityKey][]int),
	}

	// history of quantity_sold per entity, oldest first
	history := make(map[domain.EntityKey][]float64)

	for _, rec := range sorted {
		key := rec.Key()
		prior := history[key]

		row := Row{TransactionRecord: rec}

		// lag_N = quantity sold N records back within this entity
		if len(prior) >= NumLags {
			row.HasLags = true
			for n := 1; n <= NumLags; n++ {
				row.Lags[n-1] = prior[len(prior)-n]
			}
		}

		// rolling mean over up to RollingWindow periods strictly before this row
		if len(prior) >= RollingMinPeriods {
			row.RollingMean4 = trailingMean(prior, RollingWindow)
			row.HasRollingMean = true
		}

		_, week := rec.Date.ISOWeek()
		row.Week = week
		row.Month = int(rec.Date.Month())
		row.DayOfWeek = int(rec.Date.Weekday())

		// per-row business ratios; no leakage concern, current row only
		row.StockVelocity = rec.QuantitySold / (rec.CurrentStock + 1)
		if rec.CostPrice != 0 {
			row.ProfitMargin = (rec.SellingPrice - rec.CostPrice) / rec.CostPrice
		} else {
			row.ProfitMargin = math.NaN()
		}

		if _, seen := t.byEntity[key]; !seen {
			t.entities = append(t.entities, key)
		}
		t.byEntity[key] = append(t.byEntity[key], len(t.Rows))
		t.Rows = append(t.Rows, row)

		history[key] = append(prior, rec.QuantitySold)
	}

	t.imputeRatios()

	sort.Slice(t.entities, func(i, j int) bool { return t.entities[i].Less(t.entities[j]) })

	return t, nil
}

// trailingMean averages the last min(window, len(values)) values.
func trailingMean(values []float64, window int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n > window {
		values = values[n-window:]
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Entities returns all distinct entity keys, ordered by (branch, product).
func (t *Table) Entities() []domain.EntityKey {
	out := make([]domain.EntityKey, len(t.entities))
	copy(out, t.entities)
	return out
}

// History returns the engineered rows of one entity in chronological order.
func (t *Table) History(key domain.EntityKey) []Row {
	idx := t.byEntity[key]
	rows := make([]Row, len(idx))
	for i, j := range idx {
		rows[i] = t.Rows[j]
	}
	return rows
}

// TrainingMatrix returns the feature matrix and target for all rows with
// complete history, ordered chronologically across the whole table so a
// holdout split on the tail respects time order. Fails fast if any value in
// the matrix is non-finite.
func (t *Table) TrainingMatrix() (x [][]float64, y []float64, err error) {
	complete := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Complete() {
			complete = append(complete, row)
		}
	}
	sort.SliceStable(complete, func(i, j int) bool {
		return complete[i].Date.Before(complete[j].Date)
	})

	x = make([][]float64, 0, len(complete))
	y = make([]float64, 0, len(complete))
	for _, row := range complete {
		vec := row.Vector()
		if err := vec.Validate(); err != nil {
			return nil, nil, fmt.Errorf("row %d/%d at %s: %w",
				row.BranchID, row.ProductID, row.Date.Format("2006-01-02"), err)
		}
		x = append(x, vec.Values())
		y = append(y, row.QuantitySold)
	}
	return x, y, nil
}
