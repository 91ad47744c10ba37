// Package cache implements a Redis-backed detection cache. AI detection is
// the expensive step of the masking pipeline, so verdicts are memoized by a
// hash of the analyzed text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/entity"
)

// DetectionCache handles Redis-based caching of detector verdicts. It
// implements the masking pipeline's SpanCache contract.
type DetectionCache struct {
	client *redis.Client
	config *Config
	logger *zap.Logger
	hits   int64
	misses int64
}

// NewDetectionCache creates a Redis-backed detection cache and verifies the
// connection.
func NewDetectionCache(config *Config, logger *zap.Logger) (*DetectionCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	dc := &DetectionCache{
		client: client,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Detection cache initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.Int("max_connections", config.MaxConnections),
		zap.Duration("default_ttl", config.DefaultTTL))

	return dc, nil
}

// GetSpans returns the cached spans for text, if any. Read failures and
// corrupted entries are reported as misses alongside the error; the caller
// is expected to fall through to detection.
func (dc *DetectionCache) GetSpans(ctx context.Context, text string) ([]entity.Span, bool, error) {
	key := dc.key(text)

	data, err := dc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		atomic.AddInt64(&dc.misses, 1)
		return nil, false, nil
	} else if err != nil {
		atomic.AddInt64(&dc.misses, 1)
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	var cached CachedDetection
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		dc.logger.Error("Failed to unmarshal cached detection", zap.Error(err))
		dc.client.Del(ctx, key)
		atomic.AddInt64(&dc.misses, 1)
		return nil, false, nil
	}

	atomic.AddInt64(&dc.hits, 1)
	dc.logger.Debug("Detection cache hit",
		zap.String("key", key),
		zap.Int("spans", len(cached.Spans)))
	return cached.Spans, true, nil
}

// SetSpans caches the detector verdict for text. An empty span list is a
// valid verdict and is cached too.
func (dc *DetectionCache) SetSpans(ctx context.Context, text string, spans []entity.Span) error {
	cached := CachedDetection{
		Spans:    spans,
		CachedAt: time.Now(),
		TTL:      int64(dc.config.DefaultTTL.Seconds()),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal detection for caching: %w", err)
	}

	if err := dc.client.Set(ctx, dc.key(text), data, dc.config.DefaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache detection: %w", err)
	}
	return nil
}

// GetStats returns cache performance statistics.
func (dc *DetectionCache) GetStats(ctx context.Context) (*Stats, error) {
	info, err := dc.client.Info(ctx, "memory").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %w", err)
	}

	stats := &Stats{
		Hits:   atomic.LoadInt64(&dc.hits),
		Misses: atomic.LoadInt64(&dc.misses),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	for _, line := range strings.Split(info, "\r\n") {
		if memStr, ok := strings.CutPrefix(line, "used_memory:"); ok {
			if mem, err := strconv.ParseInt(memStr, 10, 64); err == nil {
				stats.MemoryUsage = mem
			}
		}
	}

	if keys, err := dc.client.DBSize(ctx).Result(); err == nil {
		stats.TotalKeys = keys
	}

	return stats, nil
}

// Clear removes all cached detections under this cache's key prefix.
func (dc *DetectionCache) Clear(ctx context.Context) error {
	iter := dc.client.Scan(ctx, 0, dc.config.KeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := dc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	dc.logger.Info("Detection cache cleared", zap.Int("keys", len(keys)))
	return nil
}

// Close releases the Redis connection pool.
func (dc *DetectionCache) Close() error {
	return dc.client.Close()
}

// key derives the cache key for a text. Texts are keyed by content hash so
// original values never appear in Redis keys.
func (dc *DetectionCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return dc.config.KeyPrefix + hex.EncodeToString(sum[:])
}

// maskRedisURL hides credentials embedded in a Redis URL before logging.
func maskRedisURL(url string) string {
	if at := strings.LastIndex(url, "@"); at >= 0 {
		if scheme := strings.Index(url, "://"); scheme >= 0 {
			return url[:scheme+3] + "***" + url[at:]
		}
	}
	return url
}
