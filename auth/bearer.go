package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrTokenNotFound     = errors.New("auth: token not found")
	ErrTokenInvalidInput = errors.New("auth: invalid token source")
)

// TokenExtractor pulls the raw token out of a request without verifying it.
type TokenExtractor func(*http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>". The scheme is
// matched case-insensitively.
func BearerTokenExtractor() TokenExtractor {
	return func(r *http.Request) (string, error) {
		return parseBearer(r.Header.Get("Authorization"))
	}
}

func parseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrTokenNotFound
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrTokenInvalidInput
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrTokenInvalidInput
	}
	return token, nil
}
