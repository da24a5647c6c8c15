package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestTokenKey(t *testing.T) {
	if got := tokenKey(42); got != "market:token:42" {
		t.Fatalf("tokenKey(42) = %q", got)
	}
}

func TestTokenHashRoundTrip(t *testing.T) {
	in := &CachedToken{
		ID:         7,
		Descriptor: "https://picsum.photos/200/300",
		Owner:      "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		Seller:     "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc",
		Price:      "0.1",
		Sold:       true,
		UpdatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC),
	}
	fields := encodeToken(in)
	vals := make(map[string]string, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		vals[fields[i].(string)] = fields[i+1].(string)
	}

	out, err := decodeToken(in.ID, vals)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.UpdatedAt.Equal(in.UpdatedAt) {
		t.Fatalf("updated_at: got %v, want %v", out.UpdatedAt, in.UpdatedAt)
	}
	out.UpdatedAt = in.UpdatedAt
	if *out != *in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}

	vals["sold"] = "maybe"
	if _, err := decodeToken(in.ID, vals); err == nil {
		t.Fatal("expected error for malformed sold flag")
	}
}

// Integration tests; skipped unless REDIS_URL is set.
func TestMarketCacheIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}
	rc, err := NewRedisClient(context.Background(), newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	ctx := context.Background()
	c := NewMarketCache(rc, time.Minute)
	const id = 900001
	t.Cleanup(func() { _ = c.Invalidate(context.Background(), id) })

	if _, err := c.GetToken(ctx, id); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for missing token, got %v", err)
	}
	tok := &CachedToken{ID: id, Descriptor: "ipfs://a", Owner: "0xa", Seller: "0xb", Price: "1", UpdatedAt: time.Now().UTC()}
	gen, err := c.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if err := c.SetToken(ctx, gen, tok); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got, err := c.GetToken(ctx, id)
	if err != nil || got.Descriptor != "ipfs://a" {
		t.Fatalf("GetToken: %+v, %v", got, err)
	}

	if err := c.SetListings(ctx, gen, []CachedListing{{ID: id, Seller: "0xb", Price: "1"}}); err != nil {
		t.Fatalf("SetListings: %v", err)
	}
	listings, err := c.GetListings(ctx)
	if err != nil || len(listings) != 1 || listings[0].ID != id {
		t.Fatalf("GetListings: %+v, %v", listings, err)
	}

	if err := c.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.GetListings(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after invalidate, got %v", err)
	}
	if _, err := c.GetToken(ctx, id); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after invalidate, got %v", err)
	}

	// A fill that read the generation before the invalidation is dropped.
	if err := c.SetListings(ctx, gen, []CachedListing{{ID: id, Seller: "0xb", Price: "1"}}); !errors.Is(err, ErrStaleFill) {
		t.Fatalf("expected ErrStaleFill, got %v", err)
	}
	if err := c.SetToken(ctx, gen, tok); !errors.Is(err, ErrStaleFill) {
		t.Fatalf("expected ErrStaleFill, got %v", err)
	}
	if _, err := c.GetListings(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("stale listings written: %v", err)
	}
	next, err := c.Generation(ctx)
	if err != nil || next <= gen {
		t.Fatalf("generation did not advance: %d -> %d, %v", gen, next, err)
	}
	if err := c.SetListings(ctx, next, nil); err != nil {
		t.Fatalf("SetListings at current generation: %v", err)
	}
	if listings, err := c.GetListings(ctx); err != nil || len(listings) != 0 {
		t.Fatalf("GetListings: %+v, %v", listings, err)
	}
}
