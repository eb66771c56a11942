package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/entropy"
	"github.com/Conceptual-Machines/magda-harmony/internal/orchestrator"
	"github.com/Conceptual-Machines/magda-harmony/internal/style"
	"github.com/Conceptual-Machines/magda-harmony/internal/tension"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

const (
	cacheKeyPrefix   = "arrangement:"
	cachePingTimeout = 3 * time.Second
)

// Cache stores rendered arrangements by request fingerprint. The engine is
// deterministic for a given request, seed and engine configuration, and the
// fingerprint covers all three. A Cache without a client is disabled: every
// lookup misses and every store is dropped.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	hits   int64
	misses int64
}

// CacheStats reports lookups since startup
type CacheStats struct {
	Enabled bool    `json:"enabled"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewCache connects to redis. url may be a redis:// URL or a bare host:port;
// an empty url returns a disabled cache.
func NewCache(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	if url == "" {
		log.Println("⚠️  Cache not configured (REDIS_URL not set)")
		return &Cache{ttl: ttl}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("✅ Cache connected (ttl: %s)", ttl)
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// Get returns the cached document for fingerprint
func (c *Cache) Get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, fmt.Errorf("cache read failed: %w", err)
	}
	atomic.AddInt64(&c.hits, 1)
	return data, true, nil
}

// Set stores a document under fingerprint
func (c *Cache) Set(ctx context.Context, fingerprint string, data []byte) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+fingerprint, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("cache not configured")
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	stats := CacheStats{Enabled: c.Enabled(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// engineSettings is the part of config.Engine that shapes a rendered
// arrangement. Worker counts are left out.
type engineSettings struct {
	Voicing      voicing.Config          `json:"voicing"`
	Counterpoint counterpoint.Config     `json:"counterpoint"`
	Tension      tension.Config          `json:"tension"`
	Entropy      entropy.Config          `json:"entropy"`
	Orchestrator orchestrator.Config     `json:"orchestrator"`
	Styles       map[string]style.Target `json:"styles"`
}

// EngineFingerprint hashes the settings of e that change engine output
func EngineFingerprint(e config.Engine) (string, error) {
	settings := engineSettings{
		Voicing:      e.Voicing,
		Counterpoint: e.Counterpoint,
		Tension:      e.Tension,
		Entropy:      e.Entropy,
		Orchestrator: e.Orchestrator,
	}
	settings.Voicing.Workers = 0
	settings.Orchestrator.Workers = 0
	if e.Styles != nil {
		settings.Styles = e.Styles.All()
	}
	return Fingerprint(settings)
}

// Fingerprint hashes the JSON encoding of v
func Fingerprint(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
