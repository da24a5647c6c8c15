package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TokenCacheTTL is the time-to-live for cached token views.
	TokenCacheTTL = 24 * time.Hour

	marketCacheKeyPrefix = "market"
	activeListingsKey    = marketCacheKeyPrefix + ":listings:active"
	generationKey        = marketCacheKeyPrefix + ":generation"
)

// ErrStaleFill is returned by SetToken and SetListings when the cache was
// invalidated after the caller read its generation. The value was not written.
var ErrStaleFill = errors.New("cache fill raced an invalidation")

// CachedToken is the denormalized token view stored as a Redis hash.
// Price is the decimal string of the current or last asking price.
type CachedToken struct {
	ID         int64     `json:"id"`
	Descriptor string    `json:"descriptor"`
	Owner      string    `json:"owner"`
	Seller     string    `json:"seller"`
	Price      string    `json:"price"`
	Sold       bool      `json:"sold"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CachedListing is one active market entry in the cached listings snapshot.
type CachedListing struct {
	ID        int64     `json:"id"`
	Seller    string    `json:"seller"`
	Price     string    `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarketCache caches marketplace read models.
// Key format: "market:token:{id}" (hash) and "market:listings:active" (JSON array).
//
// "market:generation" counts invalidations across every process sharing the
// cache. A filler reads it with Generation before reading the store and hands
// it back to SetToken or SetListings, which write only while it is unchanged.
type MarketCache struct {
	client      *RedisClient
	listingsTTL time.Duration
}

// NewMarketCache creates a MarketCache. listingsTTL bounds how stale the active
// listings snapshot may get if an invalidation is lost.
func NewMarketCache(r *RedisClient, listingsTTL time.Duration) *MarketCache {
	return &MarketCache{client: r, listingsTTL: listingsTTL}
}

// GetToken retrieves a cached token view.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *MarketCache) GetToken(ctx context.Context, id int64) (*CachedToken, error) {
	vals, err := c.client.Client().HGetAll(ctx, tokenKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	return decodeToken(id, vals)
}

// SetToken writes a token view as a Redis hash with a 24-hour TTL if the
// cache generation still equals gen.
func (c *MarketCache) SetToken(ctx context.Context, gen uint64, tok *CachedToken) error {
	key := tokenKey(tok.ID)
	err := c.fill(ctx, gen, func(pipe redis.Pipeliner) {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, encodeToken(tok)...)
		pipe.Expire(ctx, key, TokenCacheTTL)
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// GetListings returns the cached active listings snapshot.
// Returns redis.Nil error when no snapshot is cached.
func (c *MarketCache) GetListings(ctx context.Context) ([]CachedListing, error) {
	raw, err := c.client.Client().Get(ctx, activeListingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("cache get listings: %w", err)
	}
	var out []CachedListing
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cache decode listings: %w", err)
	}
	return out, nil
}

// SetListings replaces the active listings snapshot if the cache generation
// still equals gen.
func (c *MarketCache) SetListings(ctx context.Context, gen uint64, listings []CachedListing) error {
	if listings == nil {
		listings = []CachedListing{}
	}
	raw, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("cache encode listings: %w", err)
	}
	err = c.fill(ctx, gen, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, activeListingsKey, raw, c.listingsTTL)
	})
	if err != nil {
		return fmt.Errorf("cache set listings: %w", err)
	}
	return nil
}

// Generation returns the invalidation counter, 0 before the first invalidation.
func (c *MarketCache) Generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.Client().Get(ctx, generationKey).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

// Invalidate bumps the generation and drops the listings snapshot and the
// views of the given tokens in one MULTI block.
func (c *MarketCache) Invalidate(ctx context.Context, tokenIDs ...int64) error {
	keys := make([]string, 0, len(tokenIDs)+1)
	keys = append(keys, activeListingsKey)
	for _, id := range tokenIDs {
		keys = append(keys, tokenKey(id))
	}
	_, err := c.client.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// fill runs write in a MULTI block guarded by WATCH on the generation key.
// An invalidation between the check and EXEC aborts the transaction.
func (c *MarketCache) fill(ctx context.Context, gen uint64, write func(pipe redis.Pipeliner)) error {
	err := c.client.Client().Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return ErrStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleFill
	}
	return err
}

// tokenKey builds the Redis key: "market:token:{id}"
func tokenKey(id int64) string {
	return fmt.Sprintf("%s:token:%d", marketCacheKeyPrefix, id)
}

func encodeToken(tok *CachedToken) []any {
	return []any{
		"id", strconv.FormatInt(tok.ID, 10),
		"descriptor", tok.Descriptor,
		"owner", tok.Owner,
		"seller", tok.Seller,
		"price", tok.Price,
		"sold", strconv.FormatBool(tok.Sold),
		"updated_at", tok.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeToken(id int64, vals map[string]string) (*CachedToken, error) {
	sold, err := strconv.ParseBool(vals["sold"])
	if err != nil {
		return nil, fmt.Errorf("cache parse sold: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}
	return &CachedToken{
		ID:         id,
		Descriptor: vals["descriptor"],
		Owner:      vals["owner"],
		Seller:     vals["seller"],
		Price:      vals["price"],
		Sold:       sold,
		UpdatedAt:  updatedAt,
	}, nil
}
