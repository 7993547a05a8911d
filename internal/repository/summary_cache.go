package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const latestSummaryKey = "summary:latest"

// CachedSummary is the Redis-cached summary of the most recent meeting.
type CachedSummary struct {
	Summary     string    `json:"summary"`
	MeetingDate string    `json:"meeting_date"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SummaryCache caches the latest-meeting summary so repeated dashboard hits
// do not re-run the LLM.
type SummaryCache interface {
	// Get returns the cached summary, or nil when the cache is empty.
	Get(ctx context.Context) (*CachedSummary, error)
	Set(ctx context.Context, summary CachedSummary, ttl time.Duration) error
	// Invalidate drops the cache; called whenever the minutes corpus changes.
	Invalidate(ctx context.Context) error
}

type redisSummaryCache struct {
	redisClient *redis.Client
}

// NewSummaryCache creates a Redis-backed SummaryCache.
func NewSummaryCache(redisClient *redis.Client) SummaryCache {
	return &redisSummaryCache{redisClient: redisClient}
}

func (c *redisSummaryCache) Get(ctx context.Context) (*CachedSummary, error) {
	jsonData, err := c.redisClient.Get(ctx, latestSummaryKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached summary: %w", err)
	}
	var summary CachedSummary
	if err := json.Unmarshal([]byte(jsonData), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
	}
	return &summary, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, summary CachedSummary, ttl time.Duration) error {
	jsonData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := c.redisClient.Set(ctx, latestSummaryKey, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

func (c *redisSummaryCache) Invalidate(ctx context.Context) error {
	return c.redisClient.Del(ctx, latestSummaryKey).Err()
}
