package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/internal/domain"
)

type fakeRepo struct {
	recs        []domain.Recommendation
	predictions []domain.Prediction
	latestCalls int
	saved       bool
}

func (f *fakeRepo) SaveRecommendations(_ context.Context, recs []domain.Recommendation) error {
	f.recs = recs
	f.saved = true
	return nil
}

func (f *fakeRepo) SavePredictions(_ context.Context, predictions []domain.Prediction) error {
	f.predictions = predictions
	return nil
}

func (f *fakeRepo) LatestRecommendations(_ context.Context, branchID int) ([]domain.Recommendation, error) {
	f.latestCalls++
	if branchID <= 0 {
		return f.recs, nil
	}
	out := make([]domain.Recommendation, 0)
	for _, r := range f.recs {
		if r.BranchID == branchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) RecommendationsByDate(_ context.Context, _ time.Time, _ int) ([]domain.Recommendation, error) {
	return f.recs, nil
}

func (f *fakeRepo) PredictionsByDate(_ context.Context, _ time.Time) ([]domain.Prediction, error) {
	return f.predictions, nil
}

func (f *fakeRepo) AvailableDates(_ context.Context) ([]time.Time, error) {
	return []time.Time{time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)}, nil
}

type memoryCache struct {
	store map[int][]domain.Recommendation
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[int][]domain.Recommendation)}
}

func (m *memoryCache) GetLatest(_ context.Context, branchID int) ([]domain.Recommendation, bool, error) {
	recs, ok := m.store[branchID]
	return recs, ok, nil
}

func (m *memoryCache) SetLatest(_ context.Context, branchID int, recs []domain.Recommendation) error {
	m.store[branchID] = recs
	return nil
}

func (m *memoryCache) InvalidateAll(_ context.Context) error {
	m.store = make(map[int][]domain.Recommendation)
	return nil
}

func sampleRecs() []domain.Recommendation {
	return []domain.Recommendation{
		{BranchID: 1, ProductID: 1, PredictedProfit: 100, StockGap: 5},
		{BranchID: 1, ProductID: 2, PredictedProfit: 400, StockGap: -3},
		{BranchID: 2, ProductID: 1, PredictedProfit: 250, StockGap: 8},
	}
}

func TestGetLatestUsesCacheOnSecondCall(t *testing.T) {
	repo := &fakeRepo{recs: sampleRecs()}
	svc := NewRecommendationService(repo, newMemoryCache())

	first, err := svc.GetLatest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, 1, repo.latestCalls)

	second, err := svc.GetLatest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, 1, repo.latestCalls, "second read must come from cache")
}

func TestGetLatestBranchFilterHasOwnCacheKey(t *testing.T) {
	repo := &fakeRepo{recs: sampleRecs()}
	svc := NewRecommendationService(repo, newMemoryCache())

	all, err := svc.GetLatest(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	branch2, err := svc.GetLatest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, branch2, 1)
	assert.Equal(t, 2, branch2[0].BranchID)
	assert.Equal(t, 2, repo.latestCalls)
}

func TestPublishInvalidatesCache(t *testing.T) {
	repo := &fakeRepo{recs: sampleRecs()}
	mem := newMemoryCache()
	svc := NewRecommendationService(repo, mem)

	_, err := svc.GetLatest(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, mem.store)

	fresh := []domain.Recommendation{{BranchID: 9, ProductID: 9}}
	require.NoError(t, svc.Publish(context.Background(), fresh, nil))

	assert.True(t, repo.saved)
	assert.Empty(t, mem.store, "publish must drop stale cache entries")

	latest, err := svc.GetLatest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 9, latest[0].BranchID)
}

func TestTopActionsAndUrgentRestocks(t *testing.T) {
	repo := &fakeRepo{recs: sampleRecs()}
	svc := NewRecommendationService(repo, nil)

	top, err := svc.TopActions(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 400.0, top[0].PredictedProfit)
	assert.Equal(t, 250.0, top[1].PredictedProfit)

	urgent, err := svc.UrgentRestocks(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, urgent, 2)
	for _, r := range urgent {
		assert.Greater(t, r.StockGap, 0.0)
	}
}
