package repository

import (
	"context"
	"time"

	"FinInfer/internal/domain/models"
	domrepo "FinInfer/internal/domain/repository"
	"FinInfer/pkg/cache"
)

// SignalCache stores prediction results in the shared cache service with a
// fixed TTL. Works against either the Redis or the in-memory backend.
type SignalCache struct {
	cache cache.Service
	ttl   time.Duration
}

func NewSignalCache(svc cache.Service, ttl time.Duration) *SignalCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SignalCache{cache: svc, ttl: ttl}
}

func (s *SignalCache) Get(ctx context.Context, key string) (*models.PredictionResult, error) {
	var result models.PredictionResult
	if err := s.cache.Get(ctx, key, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *SignalCache) Set(ctx context.Context, key string, result *models.PredictionResult) error {
	return s.cache.Set(ctx, key, result, s.ttl)
}

func (s *SignalCache) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

var _ domrepo.SignalCache = (*SignalCache)(nil)
