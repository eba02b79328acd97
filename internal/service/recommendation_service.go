package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/internal/cache"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/recommend"
	"github.com/andresuchdata/demandcast/internal/repository"
)

type RecommendationService struct {
	repo  repository.ForecastRepository
	cache cache.RecommendationCache
}

func NewRecommendationService(repo repository.ForecastRepository, cacheImpl cache.RecommendationCache) *RecommendationService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRecommendationCache()
	}
	return &RecommendationService{repo: repo, cache: cacheImpl}
}

// GetLatest returns the newest recommendation set, cache-aside.
func (s *RecommendationService) GetLatest(ctx context.Context, branchID int) ([]domain.Recommendation, error) {
	if recs, ok, err := s.cache.GetLatest(ctx, branchID); err == nil && ok {
		return recs, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("recommendations: cache get failed")
	}

	recs, err := s.repo.LatestRecommendations(ctx, branchID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetLatest(ctx, branchID, recs); err != nil {
		log.Warn().Err(err).Msg("recommendations: cache set failed")
	}

	return recs, nil
}

// GetByDate returns the recommendation set of a specific forecast date.
func (s *RecommendationService) GetByDate(ctx context.Context, date time.Time, branchID int) ([]domain.Recommendation, error) {
	return s.repo.RecommendationsByDate(ctx, date, branchID)
}

// GetPredictions returns the per-day forecast table for one date.
func (s *RecommendationService) GetPredictions(ctx context.Context, date time.Time) ([]domain.Prediction, error) {
	return s.repo.PredictionsByDate(ctx, date)
}

// GetDates lists forecast dates with stored recommendations, newest first.
func (s *RecommendationService) GetDates(ctx context.Context) ([]time.Time, error) {
	return s.repo.AvailableDates(ctx)
}

// TopActions ranks the newest recommendation set by projected profit.
func (s *RecommendationService) TopActions(ctx context.Context, branchID, n int) ([]domain.Recommendation, error) {
	recs, err := s.GetLatest(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return recommend.TopActions(recs, n), nil
}

// UrgentRestocks returns understocked entities from the newest set.
func (s *RecommendationService) UrgentRestocks(ctx context.Context, branchID, n int) ([]domain.Recommendation, error) {
	recs, err := s.GetLatest(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return recommend.UrgentRestocks(recs, n), nil
}

// Publish stores a fresh run's outputs and drops stale cache entries.
func (s *RecommendationService) Publish(ctx context.Context, recs []domain.Recommendation, predictions []domain.Prediction) error {
	if err := s.repo.SaveRecommendations(ctx, recs); err != nil {
		return err
	}
	if err := s.repo.SavePredictions(ctx, predictions); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("recommendations: cache invalidate failed")
	}
	return nil
}
