package hazard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/cache"
)

// FiresKey is the cache key of the fire feed.
const FiresKey = "hazards:fires"

// Service serves a hazard feed through a cache.
type Service struct {
	source Source
	cache  cache.Store
	ttl    time.Duration
	key    string
	log    *zap.Logger
}

// NewService returns a Service caching source under key for ttl.
func NewService(source Source, store cache.Store, key string, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{source: source, cache: store, ttl: ttl, key: key, log: log}
}

// Get returns the feed and whether it was served from cache. On a miss the
// feed is loaded from the source and stored.
func (s *Service) Get(ctx context.Context) (*FeatureCollection, bool, error) {
	var fc FeatureCollection
	err := cache.GetJSON(ctx, s.cache, s.key, &fc)
	if err == nil {
		return &fc, true, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("reading hazard cache", zap.String("key", s.key), zap.Error(err))
	}

	loaded, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("loading %s: %w", s.key, err)
	}

	if err := cache.SetJSON(ctx, s.cache, s.key, loaded, s.ttl); err != nil {
		s.log.Warn("writing hazard cache", zap.String("key", s.key), zap.Error(err))
	}
	return loaded, false, nil
}

// Invalidate drops the cached feed so the next Get reloads it.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}
