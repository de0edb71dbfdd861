package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/adeilh/go-rakh-starter/apperr"
)

// Rejection reasons reported to clients.
const (
	ReasonUnauthorized    = "Unauthorized"
	ReasonTokenExpired    = "Token expired"
	ReasonInvalidToken    = "Invalid token"
	ReasonInvalidIssuer   = "Invalid issuer"
	ReasonInvalidAudience = "Invalid audience"
	ReasonInvalidBearer   = "Invalid bearer token"
)

const acrKey = "acr"

var rsaAlgorithms = map[jwa.SignatureAlgorithm]struct{}{
	jwa.RS256: {}, jwa.RS384: {}, jwa.RS512: {},
	jwa.PS256: {}, jwa.PS384: {}, jwa.PS512: {},
}

// VerifierOptions configures a Verifier.
type VerifierOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
	Logger   *zap.Logger
	// Now overrides the clock used for exp checks.
	Now func() time.Time
}

// Verifier validates RS-signed access tokens against keys from a KeySource.
type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
	leeway   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewVerifier(keys KeySource, opts VerifierOptions) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("auth: verifier requires a key source")
	}
	if opts.Issuer == "" || opts.Audience == "" {
		return nil, errors.New("auth: verifier requires issuer and audience")
	}
	v := &Verifier{
		keys:     keys,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if v.leeway <= 0 {
		v.leeway = DefaultLeeway
	}
	if v.logger == nil {
		v.logger = zap.NewNop()
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v, nil
}

// Verify checks the token's signature, issuer, audience and expiry and
// returns its claims. Failures are authorization errors, except key set
// retrieval failures which stay internal.
func (v *Verifier) Verify(ctx context.Context, raw string) (Claims, error) {
	kid, err := keyID(raw)
	if err != nil {
		verifications.WithLabelValues("malformed").Inc()
		return Claims{}, apperr.UnauthorizedCause(ReasonUnauthorized, err)
	}

	set, err := v.keys.KeySet(ctx)
	if err != nil {
		return Claims{}, err
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		verifications.WithLabelValues("unknown_kid").Inc()
		return Claims{}, apperr.Unauthorized(ReasonUnauthorized)
	}
	alg, pub, err := rsaVerificationKey(key)
	if err != nil {
		verifications.WithLabelValues("unusable_key").Inc()
		return Claims{}, apperr.UnauthorizedCause(ReasonUnauthorized, err)
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(alg, pub),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(jwt.IssuedAtKey),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(acrKey),
		jwt.WithAcceptableSkew(v.leeway),
		jwt.WithClock(jwt.ClockFunc(v.now)),
	)
	if err != nil {
		return Claims{}, v.reject(kid, err)
	}

	claims, err := v.claims(token)
	if err != nil {
		return Claims{}, v.reject(kid, err)
	}
	verifications.WithLabelValues("ok").Inc()
	return claims, nil
}

// Stage adapts Verify to a guard stage that stores Claims in the context.
func (v *Verifier) Stage() Stage {
	return func(ctx context.Context, raw string) (context.Context, error) {
		claims, err := v.Verify(ctx, raw)
		if err != nil {
			return nil, err
		}
		return WithClaims(ctx, claims), nil
	}
}

func (v *Verifier) reject(kid string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		verifications.WithLabelValues("expired").Inc()
		return apperr.UnauthorizedCause(ReasonTokenExpired, err)
	case errors.Is(err, jwt.ErrInvalidIssuer()):
		verifications.WithLabelValues("issuer").Inc()
		return apperr.UnauthorizedCause(ReasonInvalidIssuer, err)
	case errors.Is(err, jwt.ErrInvalidAudience()):
		verifications.WithLabelValues("audience").Inc()
		return apperr.UnauthorizedCause(ReasonInvalidAudience, err)
	default:
		verifications.WithLabelValues("invalid").Inc()
		v.logger.Info("token rejected", zap.String("kid", kid), zap.Error(err))
		return apperr.UnauthorizedCause(ReasonInvalidToken, err)
	}
}

// claims copies the payload. Every field of Claims must be present; an empty
// subject would collapse distinct callers onto one profile cache entry.
func (v *Verifier) claims(token jwt.Token) (Claims, error) {
	c := Claims{
		Issuer:    token.Issuer(),
		Subject:   token.Subject(),
		ExpiresAt: unixOrZero(token.Expiration()),
		IssuedAt:  unixOrZero(token.IssuedAt()),
	}
	if c.Subject == "" {
		return Claims{}, errors.New("auth: token has an empty sub claim")
	}
	for _, aud := range token.Audience() {
		if aud == v.audience {
			c.Audience = aud
			break
		}
	}
	acr, _ := token.Get(acrKey)
	s, ok := acr.(string)
	if !ok {
		return Claims{}, errors.New("auth: acr claim is not a string")
	}
	c.ACR = s
	return c, nil
}

// keyID reads the kid from the protected header without verifying anything.
func keyID(raw string) (string, error) {
	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		return "", err
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", errors.New("auth: token has no signature")
	}
	kid := sigs[0].ProtectedHeaders().KeyID()
	if kid == "" {
		return "", errors.New("auth: token header has no kid")
	}
	return kid, nil
}

func rsaVerificationKey(key jwk.Key) (jwa.SignatureAlgorithm, *rsa.PublicKey, error) {
	if key.KeyType() != jwa.RSA {
		return "", nil, errors.New("auth: key is not RSA")
	}
	alg, ok := key.Algorithm().(jwa.SignatureAlgorithm)
	if !ok {
		return "", nil, errors.New("auth: key has no signature algorithm")
	}
	if _, ok := rsaAlgorithms[alg]; !ok {
		return "", nil, errors.New("auth: key algorithm is not an RSA signature algorithm")
	}
	pk, err := key.PublicKey()
	if err != nil {
		return "", nil, err
	}
	pub := &rsa.PublicKey{}
	if err := pk.Raw(pub); err != nil {
		return "", nil, err
	}
	return alg, pub, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
