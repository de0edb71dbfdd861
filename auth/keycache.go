package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/adeilh/go-rakh-starter/apperr"
	"github.com/adeilh/go-rakh-starter/cache"
	"github.com/adeilh/go-rakh-starter/httpx"
)

const (
	// KeySetCacheKey is the cache key holding the JWKS document.
	KeySetCacheKey = "jwks"
	// KeySetTTL is how long a fetched JWKS stays cached.
	KeySetTTL = 24 * time.Hour
)

// KeySource yields the current verification key set.
type KeySource interface {
	KeySet(ctx context.Context) (jwk.Set, error)
}

// KeyCache serves the identity provider's JWKS from the shared cache and
// refetches it when the cached copy has expired. Concurrent misses each fetch
// and overwrite; the last write wins.
type KeyCache struct {
	entry  cache.Entry
	client *httpx.Client
	url    string
	ttl    time.Duration
}

// NewKeyCache returns a KeyCache reading jwksURL through client.
func NewKeyCache(store cache.Store, client *httpx.Client, jwksURL string) *KeyCache {
	if client == nil {
		client = httpx.NewClient()
	}
	return &KeyCache{
		entry:  cache.Key(store, KeySetCacheKey),
		client: client,
		url:    jwksURL,
		ttl:    KeySetTTL,
	}
}

// KeySet returns the cached key set, fetching it on a miss. Cache, transport
// and parse failures are internal errors; nothing is retried.
func (k *KeyCache) KeySet(ctx context.Context) (jwk.Set, error) {
	var doc json.RawMessage
	hit, err := k.entry.Get(ctx, &doc)
	if err != nil {
		keyCacheRequests.WithLabelValues("error").Inc()
		return nil, apperr.Internal(fmt.Errorf("auth: read cached jwks: %w", err))
	}
	if hit {
		set, err := jwk.Parse(doc)
		if err != nil {
			keyCacheRequests.WithLabelValues("error").Inc()
			return nil, apperr.Internal(fmt.Errorf("auth: parse cached jwks: %w", err))
		}
		keyCacheRequests.WithLabelValues("hit").Inc()
		return set, nil
	}

	keyCacheRequests.WithLabelValues("miss").Inc()
	set, raw, err := k.fetch(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := k.entry.SetWithTTL(ctx, json.RawMessage(raw), k.ttl); err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: cache jwks: %w", err))
	}
	return set, nil
}

func (k *KeyCache) fetch(ctx context.Context) (jwk.Set, []byte, error) {
	resp, err := k.client.Get(ctx, k.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: fetch jwks: %w", err)
	}
	raw := resp.Body()
	set, err := jwk.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: parse jwks: %w", err)
	}
	return set, raw, nil
}
