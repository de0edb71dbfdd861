// Package oauthstub runs a fake OAuth2 identity provider for tests: a JWKS
// endpoint, a userinfo endpoint and an RSA key to mint tokens with.
package oauthstub

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

const (
	DefaultKID      = "test-key"
	DefaultIssuer   = "https://issuer.example.com/"
	DefaultAudience = "https://api.example.com"
	DefaultSubject  = "user-1"
)

// Provider is a running fake identity provider.
type Provider struct {
	Server   *httptest.Server
	Key      *rsa.PrivateKey
	Issuer   string
	Audience string

	mu             sync.Mutex
	keys           jwk.Set
	profile        any
	userinfoStatus int
	lastAuth       string

	jwksHits     atomic.Int64
	userinfoHits atomic.Int64
}

// New starts a provider serving one RS256 key under DefaultKID. The server is
// closed when t finishes.
func New(t testing.TB) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &Provider{
		Key:            key,
		Issuer:         DefaultIssuer,
		Audience:       DefaultAudience,
		keys:           jwk.NewSet(),
		userinfoStatus: http.StatusOK,
		profile: map[string]any{
			"email":          "user@example.com",
			"email_verified": true,
			"sub":            DefaultSubject,
		},
	}
	p.AddPublicKey(t, &key.PublicKey, DefaultKID, jwa.RS256)

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", p.serveJWKS)
	mux.HandleFunc("/userinfo", p.serveUserinfo)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Provider) JWKSURL() string     { return p.Server.URL + "/.well-known/jwks.json" }
func (p *Provider) UserinfoURL() string { return p.Server.URL + "/userinfo" }

// JWKSHits reports how many times the JWKS endpoint was called.
func (p *Provider) JWKSHits() int64 { return p.jwksHits.Load() }

// UserinfoHits reports how many times the userinfo endpoint was called.
func (p *Provider) UserinfoHits() int64 { return p.userinfoHits.Load() }

// LastAuthorization returns the Authorization header of the last userinfo call.
func (p *Provider) LastAuthorization() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAuth
}

// AddPublicKey publishes raw under kid. An empty alg leaves "alg" unset.
func (p *Provider) AddPublicKey(t testing.TB, raw any, kid string, alg jwa.SignatureAlgorithm) {
	t.Helper()
	key, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	if alg != "" {
		require.NoError(t, key.Set(jwk.AlgorithmKey, alg))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NoError(t, p.keys.AddKey(key))
}

// SetUserinfo changes the userinfo response.
func (p *Provider) SetUserinfo(status int, body any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userinfoStatus = status
	p.profile = body
}

func (p *Provider) serveJWKS(w http.ResponseWriter, _ *http.Request) {
	p.jwksHits.Add(1)
	p.mu.Lock()
	body, err := json.Marshal(p.keys)
	p.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (p *Provider) serveUserinfo(w http.ResponseWriter, r *http.Request) {
	p.userinfoHits.Add(1)
	p.mu.Lock()
	p.lastAuth = r.Header.Get("Authorization")
	status, profile := p.userinfoStatus, p.profile
	p.mu.Unlock()

	if p.lastAuth == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch v := profile.(type) {
	case string:
		_, _ = w.Write([]byte(v))
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

type tokenConfig struct {
	claims  map[string]any
	kid     string
	alg     jwa.SignatureAlgorithm
	signKey any
}

// TokenOption adjusts a minted token.
type TokenOption func(*tokenConfig)

// WithClaim sets or overrides a claim. A nil value removes it.
func WithClaim(name string, value any) TokenOption {
	return func(c *tokenConfig) {
		if value == nil {
			delete(c.claims, name)
			return
		}
		c.claims[name] = value
	}
}

// WithKID sets the kid header. An empty kid omits the header.
func WithKID(kid string) TokenOption {
	return func(c *tokenConfig) { c.kid = kid }
}

// WithSigner signs with key and alg instead of the provider key.
func WithSigner(alg jwa.SignatureAlgorithm, key any) TokenOption {
	return func(c *tokenConfig) {
		c.alg = alg
		c.signKey = key
	}
}

// Token mints a signed token valid for one hour with the provider's issuer
// and audience.
func (p *Provider) Token(t testing.TB, opts ...TokenOption) string {
	t.Helper()
	now := time.Now()
	cfg := tokenConfig{
		claims: map[string]any{
			jwt.IssuerKey:     p.Issuer,
			jwt.AudienceKey:   []string{p.Audience},
			jwt.SubjectKey:    DefaultSubject,
			jwt.IssuedAtKey:   now,
			jwt.ExpirationKey: now.Add(time.Hour),
			"acr":             "1",
		},
		kid:     DefaultKID,
		alg:     jwa.RS256,
		signKey: p.Key,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tok := jwt.New()
	for k, v := range cfg.claims {
		require.NoError(t, tok.Set(k, v))
	}
	hdr := jws.NewHeaders()
	if cfg.kid != "" {
		require.NoError(t, hdr.Set(jws.KeyIDKey, cfg.kid))
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(cfg.alg, cfg.signKey, jws.WithProtectedHeaders(hdr)))
	require.NoError(t, err)
	return string(signed)
}
