package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-rakh-starter/apperr"
	"github.com/adeilh/go-rakh-starter/cache/memory"
	"github.com/adeilh/go-rakh-starter/internal/testutil/oauthstub"
)

func request(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestBearerTokenExtractor(t *testing.T) {
	extract := BearerTokenExtractor()
	cases := []struct {
		header string
		token  string
		err    error
	}{
		{"", "", ErrTokenNotFound},
		{"Bearer abc", "abc", nil},
		{"bearer  abc ", "abc", nil},
		{"Basic dXNlcjpwYXNz", "", ErrTokenInvalidInput},
		{"Bearer ", "", ErrTokenInvalidInput},
		{"BearerNoSpace", "", ErrTokenInvalidInput},
	}
	for _, tc := range cases {
		token, err := extract(request(tc.header))
		assert.Equal(t, tc.token, token, tc.header)
		assert.ErrorIs(t, err, tc.err, tc.header)
	}
}

func TestNewMiddlewareRequiresStage(t *testing.T) {
	_, err := NewMiddleware(nil)
	assert.Error(t, err)
	_, err = ClaimsGuard(nil)
	assert.Error(t, err)
	_, err = ProfileGuard(nil)
	assert.Error(t, err)
	_, err = SecretGuard(nil)
	assert.Error(t, err)
}

func TestGuardsRejectMissingHeaderWithTheirReason(t *testing.T) {
	p := oauthstub.New(t)
	v := newVerifier(t, p, nil)
	pr, err := NewProfileResolver(v, memory.NewStore(), nil, p.UserinfoURL())
	require.NoError(t, err)

	claims, err := ClaimsGuard(v)
	require.NoError(t, err)
	profile, err := ProfileGuard(pr)
	require.NoError(t, err)
	bearer, err := BearerGuard()
	require.NoError(t, err)

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		_, err = claims.Authenticate(request(header))
		requireAuthError(t, err, ReasonUnauthorized)
		_, err = profile.Authenticate(request(header))
		requireAuthError(t, err, ReasonInvalidBearer)
		_, err = bearer.Authenticate(request(header))
		requireAuthError(t, err, ReasonInvalidBearer)
	}
	assert.Zero(t, p.JWKSHits())
}

func TestBearerGuardDoesNotVerify(t *testing.T) {
	bearer, err := BearerGuard()
	require.NoError(t, err)

	req, err := bearer.Authenticate(request("Bearer not-a-jwt"))
	require.NoError(t, err)
	token, ok := BearerTokenFromContext(req.Context())
	assert.True(t, ok)
	assert.Equal(t, "not-a-jwt", token)
}

func TestClaimsGuardPassesVerifierReason(t *testing.T) {
	p := oauthstub.New(t)
	guard, err := ClaimsGuard(newVerifier(t, p, nil))
	require.NoError(t, err)

	_, err = guard.Authenticate(request("Bearer " + p.Token(t, oauthstub.WithClaim("iss", "elsewhere"))))
	requireAuthError(t, err, ReasonInvalidIssuer)

	req, err := guard.Authenticate(request("Bearer " + p.Token(t)))
	require.NoError(t, err)
	claims, ok := ClaimsFromContext(req.Context())
	require.True(t, ok)
	assert.Equal(t, p.Issuer, claims.Issuer)
}

func TestMiddlewareWrapsPlainStageErrors(t *testing.T) {
	failing := func(context.Context, string) (context.Context, error) { return nil, errors.New("boom") }
	mw, err := NewMiddleware(failing, WithRejectReason("Nope"))
	require.NoError(t, err)
	_, err = mw.Authenticate(request("Bearer x"))
	requireAuthError(t, err, "Nope")

	internal := func(context.Context, string) (context.Context, error) {
		return nil, apperr.Internal(errors.New("down"))
	}
	mw, err = NewMiddleware(internal)
	require.NoError(t, err)
	_, err = mw.Authenticate(request("Bearer x"))
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestMiddlewareSkipper(t *testing.T) {
	bearer, err := BearerGuard(WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/" }))
	require.NoError(t, err)
	req, err := bearer.Authenticate(request(""))
	require.NoError(t, err)
	_, ok := BearerTokenFromContext(req.Context())
	assert.False(t, ok)
}

func TestHandlerWritesErrorBody(t *testing.T) {
	bearer, err := BearerGuard()
	require.NoError(t, err)

	called := false
	h := bearer.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(""))
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"type": "AUTHORIZATION_ERROR", "value": ReasonInvalidBearer}, body)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("Bearer t"))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCustomErrorHandler(t *testing.T) {
	var got error
	bearer, err := BearerGuard(WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	bearer.Handler(nil).ServeHTTP(rec, request(""))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, ErrTokenNotFound)
}
