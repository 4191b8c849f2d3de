package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// AccessTokenClaims is the payload carried by access tokens.
type AccessTokenClaims struct {
	gojwt.RegisteredClaims
}

// Generator issues and validates HMAC-signed access tokens.
type Generator struct {
	secret []byte
	method gojwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator builds a Generator for the named HMAC algorithm.
func NewGenerator(secret []byte, algorithm string, ttl time.Duration, opts ...Option) (*Generator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt: signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt: token ttl must be positive")
	}
	alg := strings.ToUpper(strings.TrimSpace(algorithm))
	method, ok := gojwt.GetSigningMethod(alg).(*gojwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("jwt: unsupported signing algorithm %q", algorithm)
	}

	g := &Generator{
		secret: secret,
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// TTL returns the configured token lifetime.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// GenerateAccessToken issues a token for subject using the configured TTL.
func (g *Generator) GenerateAccessToken(subject string) (string, time.Time, error) {
	return g.GenerateAccessTokenWithTTL(subject, g.ttl)
}

// GenerateAccessTokenWithTTL issues a token for subject valid for ttl.
func (g *Generator) GenerateAccessTokenWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, errors.New("jwt: subject is required")
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("jwt: token ttl must be positive")
	}

	issuedAt := g.now()
	expiresAt := gojwt.NewNumericDate(issuedAt.Add(ttl))
	claims := AccessTokenClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(issuedAt),
			ExpiresAt: expiresAt,
		},
	}

	signed, err := gojwt.NewWithClaims(g.method, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

// ValidateAccessToken verifies signature, algorithm and expiry and returns
// the subject claim.
func (g *Generator) ValidateAccessToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrTokenInvalid
	}

	claims := &AccessTokenClaims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return g.secret, nil
	},
		gojwt.WithValidMethods([]string{g.method.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject claim", ErrTokenInvalid)
	}
	return claims.Subject, nil
}
