package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
)

// Store is the minimal key-value backend the gateway runs on.
// Values are opaque bytes; expiry is the backend's responsibility.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

// PrefixDeleter is an optional Store capability. Backends without it fall
// back to a full flush on prefix invalidation, trading hit rate for
// correctness.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// namespace prefixes every key so invalidation never touches another
// application's entries in a shared backend
const namespace = "newshub"

// ttlTable holds per-category TTLs keyed by the logical key's leading segment
var ttlTable = map[string]time.Duration{
	"categories":        24 * time.Hour,
	"sources":           24 * time.Hour,
	"authors":           12 * time.Hour,
	"filter_options":    6 * time.Hour,
	"articles":          5 * time.Minute,
	"personalized_feed": 5 * time.Minute,
}

// defaultTTL applies to unrecognized key prefixes, same as articles
const defaultTTL = 5 * time.Minute

// Gateway is a read-through/invalidate-by-key cache over a Store,
// with per-category TTL policy and namespaced keys
type Gateway struct {
	store Store
}

// NewGateway creates a cache gateway over the given store
func NewGateway(store Store) *Gateway {
	return &Gateway{store: store}
}

// TTLFor returns the policy TTL for a logical key, decided by its first
// colon-separated segment
func TTLFor(key string) time.Duration {
	segment, _, _ := strings.Cut(key, ":")
	if ttl, ok := ttlTable[segment]; ok {
		return ttl
	}
	return defaultTTL
}

// Forget removes a single logical key
func (g *Gateway) Forget(ctx context.Context, key string) error {
	if err := g.store.Delete(ctx, fullKey(key)); err != nil {
		return fmt.Errorf("cache forget %s: %w", key, err)
	}
	return nil
}

// ForgetByPrefix removes all keys under a logical prefix. When the backend
// can't delete by prefix the whole store is flushed instead: stale entries
// are worse than cold ones.
func (g *Gateway) ForgetByPrefix(ctx context.Context, prefix string) error {
	if pd, ok := g.store.(PrefixDeleter); ok {
		if err := pd.DeleteByPrefix(ctx, fullKey(prefix)); err != nil {
			return fmt.Errorf("cache forget by prefix %s: %w", prefix, err)
		}
		return nil
	}

	lgr.Printf("[WARN] cache backend has no prefix deletion, flushing whole store for prefix %s", prefix)
	if err := g.store.Flush(ctx); err != nil {
		return fmt.Errorf("cache flush: %w", err)
	}
	return nil
}

// Flush clears the whole namespace-independent store, used by the
// administrative cache-clear operation
func (g *Gateway) Flush(ctx context.Context) error {
	if err := g.store.Flush(ctx); err != nil {
		return fmt.Errorf("cache flush: %w", err)
	}
	return nil
}

// Remember is a read-through lookup: on hit the stored value is returned, on
// miss compute runs and its result is stored under the key's policy TTL.
// Compute errors are returned and never cached.
func Remember[T any](ctx context.Context, g *Gateway, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	return RememberTTL(ctx, g, key, TTLFor(key), compute)
}

// RememberTTL is Remember with an explicit TTL override
func RememberTTL[T any](ctx context.Context, g *Gateway, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	data, found, err := g.store.Get(ctx, fullKey(key))
	if err != nil {
		return zero, fmt.Errorf("cache get %s: %w", key, err)
	}
	if found {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// undecodable entry, treat as miss and overwrite below
		lgr.Printf("[WARN] dropping undecodable cache entry %s", key)
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := g.store.Set(ctx, fullKey(key), encoded, ttl); err != nil {
		return zero, fmt.Errorf("cache set %s: %w", key, err)
	}
	return value, nil
}

func fullKey(key string) string {
	return namespace + ":" + key
}
