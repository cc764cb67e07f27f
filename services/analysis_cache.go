package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/sahilchouksey/pyq-analyzer/utils"
	"github.com/sahilchouksey/pyq-analyzer/utils/cache"
)

// DefaultAnalysisCacheTTL bounds how long generated topics and answers are reused
const DefaultAnalysisCacheTTL = 24 * time.Hour

// AnalysisCache stores AI output per normalized question key
type AnalysisCache interface {
	GetTopics(ctx context.Context, key string) ([]Topic, bool)
	SetTopics(ctx context.Context, key string, topics []Topic)
	GetAnswer(ctx context.Context, key string) (string, bool)
	SetAnswer(ctx context.Context, key string, answer string)
}

// RedisAnalysisCache is an AnalysisCache backed by Redis. Cache errors are
// logged and treated as misses.
type RedisAnalysisCache struct {
	cache  *cache.RedisCache
	ttl    time.Duration
	logger *utils.Logger
}

// NewRedisAnalysisCache creates a new Redis-backed analysis cache
func NewRedisAnalysisCache(redisCache *cache.RedisCache, ttl time.Duration, logger *utils.Logger) *RedisAnalysisCache {
	if ttl <= 0 {
		ttl = DefaultAnalysisCacheTTL
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &RedisAnalysisCache{cache: redisCache, ttl: ttl, logger: logger}
}

func cacheKey(kind, normalizedKey string) string {
	sum := sha256.Sum256([]byte(normalizedKey))
	return "pyq:" + kind + ":" + hex.EncodeToString(sum[:])
}

func (c *RedisAnalysisCache) GetTopics(ctx context.Context, key string) ([]Topic, bool) {
	var topics []Topic
	if err := c.cache.GetJSON(ctx, cacheKey("topics", key), &topics); err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.logger.Warn("topic cache read failed", "error", err)
		}
		return nil, false
	}
	return topics, len(topics) > 0
}

func (c *RedisAnalysisCache) SetTopics(ctx context.Context, key string, topics []Topic) {
	if err := c.cache.SetJSON(ctx, cacheKey("topics", key), topics, c.ttl); err != nil {
		c.logger.Warn("topic cache write failed", "error", err)
	}
}

func (c *RedisAnalysisCache) GetAnswer(ctx context.Context, key string) (string, bool) {
	answer, err := c.cache.Get(ctx, cacheKey("answer", key))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.logger.Warn("answer cache read failed", "error", err)
		}
		return "", false
	}
	return answer, answer != ""
}

func (c *RedisAnalysisCache) SetAnswer(ctx context.Context, key string, answer string) {
	if err := c.cache.Set(ctx, cacheKey("answer", key), answer, c.ttl); err != nil {
		c.logger.Warn("answer cache write failed", "error", err)
	}
}
