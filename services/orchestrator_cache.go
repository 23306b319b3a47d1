package services

import (
	"context"
	"time"

	"rangeapi/database"
	"rangeapi/metrics"

	"github.com/redis/go-redis/v9"
)

const statusCacheTTL = 10 * time.Second

// CachedOrchestrator decorates an Orchestrator with a short-lived redis
// cache for status queries, so a dashboard polling many instances does not
// hammer the backend. Start and stop calls pass through untouched; a stop
// invalidates the cached status for that deployment.
type CachedOrchestrator struct {
	Orchestrator
	redis *redis.Client
}

// NewCachedOrchestrator wraps an orchestrator with the global redis client.
// With redis down the cache degrades to pass-through.
func NewCachedOrchestrator(inner Orchestrator) *CachedOrchestrator {
	return &CachedOrchestrator{Orchestrator: inner, redis: database.Redis}
}

func statusCacheKey(deploymentName string) string {
	return "orc:status:" + deploymentName
}

func (c *CachedOrchestrator) ChallengeStatus(deploymentName string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, statusCacheKey(deploymentName)).Result(); err == nil {
			metrics.CacheHits.Inc()
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	status, err := c.Orchestrator.ChallengeStatus(deploymentName)
	if err != nil {
		return "", err
	}

	if c.redis != nil {
		c.redis.Set(ctx, statusCacheKey(deploymentName), status, statusCacheTTL)
	}
	return status, nil
}

func (c *CachedOrchestrator) StopChallenge(deploymentName string) error {
	if c.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.redis.Del(ctx, statusCacheKey(deploymentName))
	}
	return c.Orchestrator.StopChallenge(deploymentName)
}
