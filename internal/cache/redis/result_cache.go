// Package redis implements the optional extraction result cache on Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"doculens/internal/config"
	"doculens/internal/domain"
	"doculens/internal/metrics"
	"doculens/internal/port"
	"doculens/internal/prompt"
)

var _ port.ResultCache = (*Cache)(nil)

// Cache stores envelopes keyed by document content fingerprint so identical
// re-submissions skip inference entirely.
type Cache struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewCache connects to Redis via rueidis.
func NewCache(cfg *config.CacheConfig) (*Cache, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Address},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating redis client: %w", err)
	}
	ttl := time.Duration(cfg.TTLSecs) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (*domain.Envelope, bool, error) {
	cmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
	return &env, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, env *domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	cmd := c.client.B().Set().Key(key).Value(string(data)).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (c *Cache) Close() {
	c.client.Close()
}

// Key fingerprints a document for cache lookup. Page bytes, the model name
// and the prompt version all participate: changing any of them must produce
// a fresh extraction.
func Key(pages [][]byte, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte(prompt.Version))
	for _, p := range pages {
		h.Write(p)
	}
	return "doculens:result:" + hex.EncodeToString(h.Sum(nil))
}
