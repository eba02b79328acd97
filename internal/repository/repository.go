// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// ForecastRepository persists and queries batch run outputs.
type ForecastRepository interface {
	SaveRecommendations(ctx context.Context, recs []domain.Recommendation) error
	SavePredictions(ctx context.Context, predictions []domain.Prediction) error
	LatestRecommendations(ctx context.Context, branchID int) ([]domain.Recommendation, error)
	RecommendationsByDate(ctx context.Context, date time.Time, branchID int) ([]domain.Recommendation, error)
	PredictionsByDate(ctx context.Context, date time.Time) ([]domain.Prediction, error)
	AvailableDates(ctx context.Context) ([]time.Time, error)
}
