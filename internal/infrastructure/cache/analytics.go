// Package cache provides the Redis-backed analytics cache. The engine treats
// the cache as best-effort: misses and marshal failures degrade to a
// recompute, never to a request error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/config"
	"github.com/epireve/hey-peter-scheduler/internal/usecase"
)

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a Redis-backed usecase.AnalyticsCache. It returns
// a nil cache and a no-op cleanup when no Redis address is configured so
// callers can wire the estimator without a cache.
func NewAnalyticsCache(cfg *config.Config) (usecase.AnalyticsCache, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, func() { client.Close() }, fmt.Errorf("ping redis: %w", err)
	}

	ttl := time.Duration(cfg.Redis.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &analyticsCache{client: client, ttl: ttl}, func() { client.Close() }, nil
}

func analyticsKey(studentID string) string {
	return "analytics:" + studentID
}

func (c *analyticsCache) Get(ctx context.Context, studentID string) (*entity.LearningAnalytics, error) {
	payload, err := c.client.Get(ctx, analyticsKey(studentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var analytics entity.LearningAnalytics
	if err := json.Unmarshal(payload, &analytics); err != nil {
		// Stale or corrupted payload counts as a miss.
		return nil, nil
	}
	return &analytics, nil
}

func (c *analyticsCache) Set(ctx context.Context, analytics *entity.LearningAnalytics) error {
	payload, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, analyticsKey(analytics.StudentID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
