package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("a-pre-shared-secret-of-decent-length")

func signHS(t *testing.T, method jwt.SigningMethod, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestNewSecretVerifierRequiresSecret(t *testing.T) {
	_, err := NewSecretVerifier(nil, 0, nil)
	assert.Error(t, err)
}

func TestSecretVerifyIgnoresIssuerAndAudience(t *testing.T) {
	v, err := NewSecretVerifier(testSecret, 0, nil)
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour).Unix()
	token := signHS(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"iss": "anyone",
		"aud": "anything",
		"sub": "svc-1",
		"exp": exp,
		"iat": time.Now().Unix(),
		"acr": "0",
	})

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "anyone", claims.Issuer)
	assert.Equal(t, "anything", claims.Audience)
	assert.Equal(t, "svc-1", claims.Subject)
	assert.Equal(t, exp, claims.ExpiresAt)
	assert.Equal(t, "0", claims.ACR)
}

func TestSecretVerifyRejectsEverythingElseAsUnauthorized(t *testing.T) {
	v, err := NewSecretVerifier(testSecret, 0, nil)
	require.NoError(t, err)
	valid := jwt.MapClaims{"sub": "svc-1", "exp": time.Now().Add(time.Hour).Unix()}

	cases := map[string]string{
		"garbage":      "abc.def.ghi",
		"wrong secret": signHS(t, jwt.SigningMethodHS256, []byte("another-secret-entirely-000000000"), valid),
		"wrong method": signHS(t, jwt.SigningMethodHS512, testSecret, valid),
		"expired":      signHS(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"exp": time.Now().Add(-5 * time.Minute).Unix()}),
		"missing exp":  signHS(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "svc-1"}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			requireAuthError(t, err, ReasonUnauthorized)
		})
	}
}

func TestSecretVerifyLeeway(t *testing.T) {
	now := time.Now()
	v, err := NewSecretVerifier(testSecret, 0, func() time.Time { return now })
	require.NoError(t, err)

	token := signHS(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"exp": now.Add(-30 * time.Second).Unix()})
	_, err = v.Verify(token)
	assert.NoError(t, err)
}

func TestSecretStageStoresClaims(t *testing.T) {
	v, err := NewSecretVerifier(testSecret, time.Minute, nil)
	require.NoError(t, err)
	token := signHS(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "svc-2", "exp": time.Now().Add(time.Hour).Unix()})

	ctx, err := v.Stage()(context.Background(), token)
	require.NoError(t, err)
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "svc-2", claims.Subject)
}
