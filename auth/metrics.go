package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	keyCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "key_cache_requests_total",
		Help:      "JWKS lookups by cache result (hit, miss, error).",
	}, []string{"result"})

	profileCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "profile_cache_requests_total",
		Help:      "Profile lookups by cache result (hit, miss, error).",
	}, []string{"result"})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "token_verifications_total",
		Help:      "Token verifications by outcome.",
	}, []string{"outcome"})
)
