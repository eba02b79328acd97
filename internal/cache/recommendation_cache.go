package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/domain"
)

const (
	recommendationKeyPrefix   = "recommendations:latest"
	recommendationScanBatchSz = 100
)

type RecommendationCache interface {
	GetLatest(ctx context.Context, branchID int) ([]domain.Recommendation, bool, error)
	SetLatest(ctx context.Context, branchID int, recs []domain.Recommendation) error
	InvalidateAll(ctx context.Context) error
}

type redisRecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecommendationCache struct{}

func NewRecommendationCache(cfg config.CacheConfig) (RecommendationCache, error) {
	if !cfg.Enabled {
		return &noopRecommendationCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRecommendationCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopRecommendationCache() RecommendationCache {
	return &noopRecommendationCache{}
}

func (c *redisRecommendationCache) GetLatest(ctx context.Context, branchID int) ([]domain.Recommendation, bool, error) {
	payload, err := c.client.Get(ctx, buildRecommendationKey(branchID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var recs []domain.Recommendation
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, false, fmt.Errorf("decode recommendation cache: %w", err)
	}

	return recs, true, nil
}

func (c *redisRecommendationCache) SetLatest(ctx context.Context, branchID int, recs []domain.Recommendation) error {
	payload, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendation cache: %w", err)
	}

	if err := c.client.Set(ctx, buildRecommendationKey(branchID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecommendationCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, recommendationKeyPrefix, recommendationScanBatchSz)
}

func (n *noopRecommendationCache) GetLatest(ctx context.Context, branchID int) ([]domain.Recommendation, bool, error) {
	return nil, false, nil
}

func (n *noopRecommendationCache) SetLatest(ctx context.Context, branchID int, recs []domain.Recommendation) error {
	return nil
}

func (n *noopRecommendationCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRecommendationKey(branchID int) string {
	if branchID > 0 {
		return fmt.Sprintf("%s:branch:%d", recommendationKeyPrefix, branchID)
	}
	return recommendationKeyPrefix + ":all"
}
