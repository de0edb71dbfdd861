package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-rakh-starter/apperr"
	"github.com/adeilh/go-rakh-starter/cache"
	"github.com/adeilh/go-rakh-starter/cache/memory"
	redisstore "github.com/adeilh/go-rakh-starter/cache/redis"
	"github.com/adeilh/go-rakh-starter/httpx"
	"github.com/adeilh/go-rakh-starter/internal/testutil/oauthstub"
)

func TestKeyCacheFetchesOnMissThenServesFromCache(t *testing.T) {
	p := oauthstub.New(t)
	store := memory.NewStore()
	kc := NewKeyCache(store, httpx.NewClient(), p.JWKSURL())
	ctx := context.Background()

	set, err := kc.KeySet(ctx)
	require.NoError(t, err)
	_, ok := set.LookupKeyID(oauthstub.DefaultKID)
	assert.True(t, ok)

	set, err = kc.KeySet(ctx)
	require.NoError(t, err)
	_, ok = set.LookupKeyID(oauthstub.DefaultKID)
	assert.True(t, ok)

	assert.Equal(t, int64(1), p.JWKSHits())
	raw, err := store.Get(ctx, "jwks")
	require.NoError(t, err)
	assert.Contains(t, string(raw), oauthstub.DefaultKID)
}

func TestKeyCacheExpiresAfterOneDay(t *testing.T) {
	p := oauthstub.New(t)
	mr := miniredis.RunT(t)
	store := redisstore.NewStore(redisstore.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })

	kc := NewKeyCache(store, httpx.NewClient(), p.JWKSURL())
	ctx := context.Background()

	_, err := kc.KeySet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, mr.TTL("jwks"))

	mr.FastForward(23 * time.Hour)
	_, err = kc.KeySet(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.JWKSHits())

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("jwks"))
	_, err = kc.KeySet(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.JWKSHits())
	assert.Equal(t, 24*time.Hour, mr.TTL("jwks"))
}

func TestKeyCacheFetchFailureIsInternal(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		},
		"body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not a key set"))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			store := memory.NewStore()
			kc := NewKeyCache(store, httpx.NewClient(), srv.URL)
			_, err := kc.KeySet(context.Background())
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInternal))

			_, err = store.Get(context.Background(), KeySetCacheKey)
			assert.ErrorIs(t, err, cache.ErrNotFound)
		})
	}
}

func TestKeyCacheUnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	kc := NewKeyCache(memory.NewStore(), httpx.NewClient(httpx.WithClientTimeout(time.Second)), url)
	_, err := kc.KeySet(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestKeyCacheServesCachedDocumentWithoutUpstream(t *testing.T) {
	p := oauthstub.New(t)
	store := memory.NewStore()
	ctx := context.Background()

	_, err := NewKeyCache(store, httpx.NewClient(), p.JWKSURL()).KeySet(ctx)
	require.NoError(t, err)

	// A second instance sharing the store never reaches the network.
	other := NewKeyCache(store, httpx.NewClient(), "http://127.0.0.1:1/unreachable")
	set, err := other.KeySet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}
