// Package embcache caches query embeddings in the key-value store.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfsearch/internal/db"
	"github.com/kailas-cloud/shelfsearch/internal/domain"
)

// DefaultTTL bounds how long a cached query vector is served.
const DefaultTTL = 24 * time.Hour

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config controls key layout and expiry.
type Config struct {
	// KeyPrefix is the storage prefix, e.g. "shelfsearch:".
	KeyPrefix string
	// Model namespaces keys so a model switch never serves stale vectors.
	Model string
	TTL   time.Duration
}

// CachedEmbedder serves repeated queries from the store instead of the provider.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	ns      string
	ttl     time.Duration
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. lookups, when non-nil, is counted by a "result" label of hit or miss.
func New(inner domain.Embedder, s store, cfg Config, lookups *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &CachedEmbedder{
		inner:   inner,
		store:   s,
		ns:      cfg.KeyPrefix + "emb_cache:" + cfg.Model + ":",
		ttl:     ttl,
		lookups: lookups,
		logger:  logger,
	}
}

// Embed serves the query vector from cache or calls the inner embedder.
// A hit reports zero tokens and marks the request usage as cached.
// Store failures degrade to a miss and never fail the search.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec := c.lookup(ctx, key); vec != nil {
		c.count("hit")
		domain.UsageFromContext(ctx).MarkCacheHit()
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if len(res.Embedding) > 0 {
		if err := c.store.SetWithTTL(ctx, key, vectorToCacheBytes(res.Embedding), c.ttl); err != nil {
			c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

// HealthCheck reports the inner embedder's health; an embedder without a check is healthy.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := c.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.ns + hex.EncodeToString(sum[:])
}

// lookup returns nil on a miss, a read error or an unreadable entry.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) []float32 {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	case len(data) == 0:
		return nil
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func (c *CachedEmbedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
