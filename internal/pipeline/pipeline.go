// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/features"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/model"
	"github.com/andresuchdata/demandcast/internal/recommend"
	"github.com/andresuchdata/demandcast/internal/simulate"
)

// Loader abstracts the dataset source so the pipeline runs identically from a
// CSV file or a database query.
type Loader interface {
	Load(ctx context.Context) ([]domain.TransactionRecord, error)
	Name() string
}

// RunStats summarizes one batch execution for logging and the report footer.
type RunStats struct {
	Source          string
	InputRows       int
	Entities        int
	TrainingRows    int
	HoldoutRows     int
	SelectedModel   string
	ModelMetrics    map[string]model.Metrics
	Recommendations int
	SkippedHistory  int
	InvalidPrice    int
	Predictions     int
	StartedAt       time.Time
	Duration        time.Duration
}

// RunResult is the full output of one pipeline run.
type RunResult struct {
	Recommendations []domain.Recommendation
	Predictions     []domain.Prediction
	Stats           RunStats
}

// Runner wires feature engineering, training, simulation and aggregation into
// a single batch execution.
type Runner struct {
	loader Loader
	cfg    config.ForecastConfig
	log    zerolog.Logger
}

func NewRunner(loader Loader, cfg config.ForecastConfig, log zerolog.Logger) *Runner {
	return &Runner{loader: loader, cfg: cfg, log: log}
}

// Run executes the batch end to end: load, engineer features, train and
// select a model, produce per-entity recommendations and the multi-day
// prediction table.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()

	records, err := r.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	r.log.Info().
		Str("source", r.loader.Name()).
		Int("rows", len(records)).
		Msg("dataset loaded")

	table, err := features.Build(records)
	if err != nil {
		return nil, fmt.Errorf("building features: %w", err)
	}
	entities := table.Entities()

	x, y, err := table.TrainingMatrix()
	if err != nil {
		return nil, fmt.Errorf("assembling training matrix: %w", err)
	}
	r.log.Info().
		Int("entities", len(entities)).
		Int("training_rows", len(x)).
		Msg("features engineered")

	trained, err := model.Train(x, y, model.DefaultTrainerConfig())
	if err != nil {
		return nil, fmt.Errorf("training model: %w", err)
	}
	for name, m := range trained.Families {
		r.log.Info().
			Str("family", name).
			Float64("mae", m.MAE).
			Float64("rmse", m.RMSE).
			Float64("r2", m.R2).
			Msg("holdout scores")
	}
	r.log.Info().Str("selected", trained.Selected).Msg("model selected")

	forecaster := forecast.New(trained.Model, table)
	simulator := simulate.New(forecaster, r.cfg.DiscountGrid)
	aggregator := recommend.New(forecaster, simulator, recommend.Config{
		SafetyBuffer:       r.cfg.SafetyBuffer,
		OverstockThreshold: r.cfg.OverstockThreshold,
		Workers:            r.cfg.Workers,
	}, r.log)

	out, err := aggregator.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregating recommendations: %w", err)
	}

	predictions, err := aggregator.BuildPredictionTable(r.cfg.HorizonDays)
	if err != nil {
		return nil, fmt.Errorf("building prediction table: %w", err)
	}

	stats := RunStats{
		Source:          r.loader.Name(),
		InputRows:       len(records),
		Entities:        len(entities),
		TrainingRows:    trained.Rows,
		HoldoutRows:     trained.Holdout,
		SelectedModel:   trained.Selected,
		ModelMetrics:    trained.Families,
		Recommendations: len(out.Recommendations),
		SkippedHistory:  out.SkippedHistory,
		InvalidPrice:    out.InvalidPrice,
		Predictions:     len(predictions),
		StartedAt:       started,
		Duration:        time.Since(started),
	}
	r.log.Info().
		Int("recommendations", stats.Recommendations).
		Int("skipped_history", stats.SkippedHistory).
		Int("invalid_price", stats.InvalidPrice).
		Int("predictions", stats.Predictions).
		Dur("duration", stats.Duration).
		Msg("pipeline run complete")

	return &RunResult{
		Recommendations: out.Recommendations,
		Predictions:     predictions,
		Stats:           stats,
	}, nil
}
