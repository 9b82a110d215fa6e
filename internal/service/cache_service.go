package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

// CacheRepository is the document store behind CacheService.
type CacheRepository interface {
	Load(ctx context.Context, name string, dest interface{}) error
	Store(ctx context.Context, name string, value interface{}, ttl time.Duration) error
}

// CacheService times cache traffic and turns misses into a boolean. A service
// built without a repository, or with enabled=false, never hits.
type CacheService struct {
	repo     CacheRepository
	metrics  *MetricsService
	fallback time.Duration
	logger   *zap.Logger
	enabled  bool
}

// NewCacheService builds the service. fallback is used when a caller stores a
// value without a ttl.
func NewCacheService(repo CacheRepository, metrics *MetricsService, fallback time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if fallback <= 0 {
		fallback = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, fallback: fallback, logger: logger, enabled: enabled}
}

// Enabled reports whether reads can ever hit.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads name into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, name string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Load(ctx, name, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))
	if hit || errors.Is(err, appErrors.ErrCacheMiss) {
		return hit, nil
	}
	s.logger.Warn("cache read failed", zap.String("key", name), zap.Error(err))
	return false, err
}

// Set stores value under name for ttl.
func (s *CacheService) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.fallback
	}
	start := time.Now()
	err := s.repo.Store(ctx, name, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", name), zap.Duration("ttl", ttl), zap.Error(err))
	}
	return err
}
