// internal/simulate/simulator.go
package simulate

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
)

// ErrInvalidPriceState marks entities whose pricing state cannot support the
// what-if grid: a 100% (or larger) current discount makes the implied base
// price undefined. Callers report the baseline only.
var ErrInvalidPriceState = errors.New("invalid price state")

// DefaultDiscountGrid is the candidate discount set, in percent.
var DefaultDiscountGrid = []float64{0, 10, 20, 30}

// Scenario is one evaluated (discount, price, quantity, profit) point.
type Scenario struct {
	DiscountPct float64 `json:"discount_pct"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Profit      float64 `json:"profit"`
}

// Result carries the baseline, the winning scenario and the advice string.
// Best equals Baseline when no candidate strictly beats the incumbent.
type Result struct {
	Key        domain.EntityKey
	Baseline   Scenario
	Best       Scenario
	Changed    bool
	Evaluated  int
	Rejected   int
	Suggestion string
}

// Simulator searches a fixed discount grid for the profit-maximizing price
// point, re-forecasting demand under each candidate price.
type Simulator struct {
	forecaster *forecast.Forecaster
	grid       []float64
}

func New(f *forecast.Forecaster, grid []float64) *Simulator {
	if len(grid) == 0 {
		grid = DefaultDiscountGrid
	}
	return &Simulator{forecaster: f, grid: grid}
}

// Simulate evaluates the discount grid for one entity, starting from the
// baseline forecast at the current price and discount. The incumbent is the
// current strategy: a candidate replaces it only on strictly greater profit,
// so ties keep the current discount. Candidates priced below cost are
// rejected outright (strictly: price equal to cost is also rejected, a
// zero-margin scenario must never be proposed).
func (s *Simulator) Simulate(baseline forecast.Result) (Result, error) {
	res := Result{
		Key: baseline.Key,
		Baseline: Scenario{
			DiscountPct: baseline.DiscountPct,
			Price:       baseline.SellingPrice,
			Quantity:    baseline.Units,
			Profit:      baseline.Profit,
		},
	}
	res.Best = res.Baseline
	res.Suggestion = "Maintain current strategy"

	// Back-compute the undiscounted base price. At discount >= 100 the
	// division is undefined; classify instead of inheriting the divide-through.
	if baseline.DiscountPct >= 100 {
		return res, fmt.Errorf("%w: entity %d/%d has %.0f%% current discount",
			ErrInvalidPriceState, baseline.Key.BranchID, baseline.Key.ProductID, baseline.DiscountPct)
	}
	basePrice := baseline.SellingPrice / (1 - baseline.DiscountPct/100)

	for _, d := range s.grid {
		price := basePrice * (1 - d/100)

		// loss guard: never evaluate or report a scenario at or below cost
		if price <= baseline.CostPrice {
			res.Rejected++
			continue
		}

		sim, err := s.forecaster.ForecastWith(baseline.Key, forecast.Overrides{
			SellingPrice: &price,
			DiscountPct:  &d,
		})
		if err != nil {
			return res, err
		}
		res.Evaluated++

		profit := sim.Units * (price - baseline.CostPrice)
		if profit > res.Best.Profit {
			res.Best = Scenario{
				DiscountPct: d,
				Price:       price,
				Quantity:    sim.Units,
				Profit:      profit,
			}
			res.Changed = true
		}
	}

	if res.Changed {
		res.Suggestion = fmt.Sprintf("Change discount to %.0f%% (projected profit %.2f)",
			res.Best.DiscountPct, res.Best.Profit)
	}

	return res, nil
}
