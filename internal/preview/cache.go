package preview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/source"
)

const cacheKeyPrefix = "readgate:preview:"

// RedisCache caches previews from an inner fetcher. Cache failures fall
// through to the inner fetcher; only non-nil previews are cached.
type RedisCache struct {
	client redis.Cmdable
	inner  source.PreviewFetcher
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCache wraps inner with a cache in client.
func NewRedisCache(client redis.Cmdable, inner source.PreviewFetcher, ttl time.Duration, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, inner: inner, ttl: ttl, log: log}
}

// FetchPreview implements source.PreviewFetcher.
func (c *RedisCache) FetchPreview(ctx context.Context, rawURL string) (*source.Preview, error) {
	key := cacheKey(rawURL)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p source.Preview
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
		c.log.Warn("preview cache: corrupt entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("preview cache: get failed", zap.Error(err))
	}

	p, err := c.inner.FetchPreview(ctx, rawURL)
	if err != nil || p == nil {
		return p, err
	}

	if data, jerr := json.Marshal(p); jerr == nil {
		if serr := c.client.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.log.Warn("preview cache: set failed", zap.Error(serr))
		}
	}
	return p, nil
}

func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
