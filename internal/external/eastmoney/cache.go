package eastmoney

import (
	"context"
	"time"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/logger"
	"github.com/wonny/fundwatch/pkg/redis"
)

// CachedSource memoizes NAV history pages in Redis.
// Cache failures fall through to the wrapped source.
type CachedSource struct {
	source contracts.NavSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource wraps source with a Redis cache
func NewCachedSource(source contracts.NavSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLShort
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl, logger: log}
}

var _ contracts.NavSource = (*CachedSource)(nil)

// FetchHistory implements contracts.NavSource
func (s *CachedSource) FetchHistory(ctx context.Context, fundCode string, limit int) ([]contracts.NavRecord, error) {
	key := redis.NAVKey(fundCode, limit)

	var cached []contracts.NavRecord
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("NAV cache read failed")
	}
	if hit {
		return cached, nil
	}

	records, err := s.source.FetchHistory(ctx, fundCode, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, records, s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("NAV cache write failed")
	}

	return records, nil
}
