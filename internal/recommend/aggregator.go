// internal/recommend/aggregator.go
package recommend

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/simulate"
)

// Config holds the aggregator's fixed business constants.
type Config struct {
	// SafetyBuffer is the fraction of the point forecast held as safety
	// stock; required_stock = predicted * (1 + SafetyBuffer).
	SafetyBuffer float64
	// OverstockThreshold is the units of negative stock gap tolerated before
	// an entity is flagged overstocked. Both classification bounds are strict.
	OverstockThreshold float64
	// Workers bounds the per-entity fan-out. The fitted model is read-only
	// shared state, so concurrent inference is safe.
	Workers int
}

// DefaultConfig mirrors the production constants: 15% safety buffer, 20-unit
// overstock tolerance.
func DefaultConfig() Config {
	return Config{
		SafetyBuffer:       0.15,
		OverstockThreshold: 20,
		Workers:            4,
	}
}

// Output is the assembled result of one aggregation pass.
type Output struct {
	Recommendations []domain.Recommendation
	SkippedHistory  int // entities without enough observations
	InvalidPrice    int // entities reported baseline-only
}

// Aggregator runs the forecaster and simulator over every known entity and
// assembles ranked recommendation records.
type Aggregator struct {
	forecaster *forecast.Forecaster
	simulator  *simulate.Simulator
	cfg        Config
	log        zerolog.Logger
}

func New(f *forecast.Forecaster, s *simulate.Simulator, cfg Config, log zerolog.Logger) *Aggregator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Aggregator{forecaster: f, simulator: s, cfg: cfg, log: log}
}

// Run forecasts and simulates every entity concurrently. Entities with
// insufficient history are skipped and counted; an invalid price state
// degrades that entity to a baseline-only recommendation. Any other error
// aborts the batch.
func (a *Aggregator) Run(ctx context.Context) (*Output, error) {
	entities := a.forecaster.Entities()

	out := &Output{Recommendations: make([]domain.Recommendation, 0, len(entities))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for _, key := range entities {
		key := key
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rec, skip, invalid, err := a.recommendOne(key)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if skip {
				out.SkippedHistory++
				return nil
			}
			if invalid {
				out.InvalidPrice++
			}
			out.Recommendations = append(out.Recommendations, rec)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// deterministic base order before any ranked view
	sortByKey(out.Recommendations)

	return out, nil
}

func (a *Aggregator) recommendOne(key domain.EntityKey) (rec domain.Recommendation, skip, invalid bool, err error) {
	baseline, err := a.forecaster.Forecast(key)
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientHistory) {
			a.log.Debug().
				Int("branch", key.BranchID).
				Int("product", key.ProductID).
				Msg("skipping entity without enough history")
			return domain.Recommendation{}, true, false, nil
		}
		return domain.Recommendation{}, false, false, err
	}

	sim, err := a.simulator.Simulate(baseline)
	if err != nil {
		if errors.Is(err, simulate.ErrInvalidPriceState) {
			a.log.Warn().
				Int("branch", key.BranchID).
				Int("product", key.ProductID).
				Err(err).
				Msg("price state invalid, reporting baseline only")
			invalid = true
		} else {
			return domain.Recommendation{}, false, false, err
		}
	}

	required := baseline.Units * (1 + a.cfg.SafetyBuffer)
	gap := required - baseline.CurrentStock

	rec = domain.Recommendation{
		BranchID:         key.BranchID,
		ProductID:        key.ProductID,
		ProductName:      baseline.ProductName,
		ForecastDate:     baseline.Date,
		PredictedUnits:   baseline.Units,
		PredictedRevenue: baseline.Revenue,
		PredictedProfit:  baseline.Profit,
		CurrentStock:     baseline.CurrentStock,
		RequiredStock:    required,
		StockGap:         gap,
		Status:           domain.ClassifyStockGap(gap, a.cfg.OverstockThreshold),
		BestDiscountPct:  sim.Best.DiscountPct,
		BestProfit:       sim.Best.Profit,
		Suggestion:       sim.Suggestion,
	}
	return rec, false, invalid, nil
}

// TopActions ranks recommendations by predicted profit descending; ties break
// by entity key for determinism.
func TopActions(recs []domain.Recommendation, n int) []domain.Recommendation {
	ranked := rankBy(recs, func(a, b domain.Recommendation) bool {
		if a.PredictedProfit != b.PredictedProfit {
			return a.PredictedProfit > b.PredictedProfit
		}
		return a.Key().Less(b.Key())
	})
	return truncate(ranked, n)
}

// TopProducts ranks recommendations by predicted sales descending with the
// same deterministic tie-break.
func TopProducts(recs []domain.Recommendation, n int) []domain.Recommendation {
	ranked := rankBy(recs, func(a, b domain.Recommendation) bool {
		if a.PredictedUnits != b.PredictedUnits {
			return a.PredictedUnits > b.PredictedUnits
		}
		return a.Key().Less(b.Key())
	})
	return truncate(ranked, n)
}

// UrgentRestocks ranks understocked entities by predicted profit descending.
func UrgentRestocks(recs []domain.Recommendation, n int) []domain.Recommendation {
	urgent := make([]domain.Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.StockGap > 0 {
			urgent = append(urgent, r)
		}
	}
	return TopActions(urgent, n)
}

func rankBy(recs []domain.Recommendation, less func(a, b domain.Recommendation) bool) []domain.Recommendation {
	out := make([]domain.Recommendation, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func truncate(recs []domain.Recommendation, n int) []domain.Recommendation {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

func sortByKey(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Key().Less(recs[j].Key()) })
}
