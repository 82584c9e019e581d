package prices

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "resolution:"

// QuoteCache stores complete resolutions in redis so repeated runs do not
// refetch historical prices that can no longer change. Cache failures are
// treated as misses; the provider remains the source of truth.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuoteCache creates a cache around an existing redis client.
func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{client: client, ttl: ttl}
}

// GetResolution returns the cached resolution for a (ticker, date) key.
func (c *QuoteCache) GetResolution(ctx context.Context, key string) (*Resolution, bool) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// SetResolution stores a resolution under a (ticker, date) key.
func (c *QuoteCache) SetResolution(ctx context.Context, key string, res *Resolution) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl)
}
