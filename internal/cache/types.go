package cache

import (
	"time"

	"github.com/safedialog/safedialog/internal/entity"
)

// CachedDetection is one cached detector verdict: the sensitive spans found
// in a given text.
type CachedDetection struct {
	Spans    []entity.Span `json:"spans"`
	CachedAt time.Time     `json:"cachedAt"`
	TTL      int64         `json:"ttl"`
}

// Stats reports cache performance counters.
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hitRate"`
	TotalKeys   int64   `json:"totalKeys"`
	MemoryUsage int64   `json:"memoryUsageBytes"`
}

// Config contains detection cache configuration.
type Config struct {
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}
