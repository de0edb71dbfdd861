package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-rakh-starter/apperr"
	"github.com/adeilh/go-rakh-starter/cache"
	"github.com/adeilh/go-rakh-starter/cache/memory"
	"github.com/adeilh/go-rakh-starter/httpx"
	"github.com/adeilh/go-rakh-starter/internal/testutil/oauthstub"
)

func newVerifier(t *testing.T, p *oauthstub.Provider, store cache.Store) *Verifier {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	keys := NewKeyCache(store, httpx.NewClient(), p.JWKSURL())
	v, err := NewVerifier(keys, VerifierOptions{Issuer: p.Issuer, Audience: p.Audience})
	require.NoError(t, err)
	return v
}

// requireAuthError asserts err is an authorization error with reason.
func requireAuthError(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindAuthorization, appErr.Kind, "error: %v", err)
	require.Equal(t, reason, appErr.Reason, "error: %v", err)
}
