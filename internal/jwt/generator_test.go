package jwt_test

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow-api/internal/jwt"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newGenerator(t *testing.T, clock *fakeClock) *jwt.Generator {
	t.Helper()
	g, err := jwt.NewGenerator([]byte("super-secret"), "HS256", time.Hour, jwt.WithClock(clock.Now))
	require.NoError(t, err)
	return g
}

func TestGenerateAndValidate(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	g := newGenerator(t, clock)

	token, expiresAt, err := g.GenerateAccessToken("user-123")
	require.NoError(t, err)
	require.True(t, clock.t.Add(time.Hour).Equal(expiresAt))

	subject, err := g.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", subject)
}

func TestValidateExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	g := newGenerator(t, clock)

	token, _, err := g.GenerateAccessTokenWithTTL("user-123", time.Minute)
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Second)
	_, err = g.ValidateAccessToken(token)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Second)
	_, err = g.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := newGenerator(t, clock)

	other, err := jwt.NewGenerator([]byte("other-secret"), "HS256", time.Hour, jwt.WithClock(clock.Now))
	require.NoError(t, err)

	token, _, err := other.GenerateAccessToken("user-123")
	require.NoError(t, err)

	_, err = g.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestValidateTamperedPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := newGenerator(t, clock)

	token, _, err := g.GenerateAccessToken("user-123")
	require.NoError(t, err)

	forged, _, err := g.GenerateAccessToken("user-999")
	require.NoError(t, err)

	// header and signature of one token, payload of another
	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	_, err = g.ValidateAccessToken(parts[0] + "." + forgedParts[1] + "." + parts[2])
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestValidateRejectsOtherAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := newGenerator(t, clock)

	claims := gojwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: gojwt.NewNumericDate(clock.t.Add(time.Hour)),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = g.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestValidateRequiresSubjectAndExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := newGenerator(t, clock)

	noSubject, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(clock.t.Add(time.Hour)),
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = g.ValidateAccessToken(noSubject)
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)

	noExpiry, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject: "user-123",
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = g.ValidateAccessToken(noExpiry)
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestValidateMalformed(t *testing.T) {
	g := newGenerator(t, &fakeClock{t: time.Now()})

	_, err := g.ValidateAccessToken("not.a.jwt")
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)

	_, err = g.ValidateAccessToken("")
	require.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestNewGeneratorValidation(t *testing.T) {
	_, err := jwt.NewGenerator(nil, "HS256", time.Hour)
	require.Error(t, err)

	_, err = jwt.NewGenerator([]byte("k"), "RS256", time.Hour)
	require.Error(t, err)

	_, err = jwt.NewGenerator([]byte("k"), "none", time.Hour)
	require.Error(t, err)

	_, err = jwt.NewGenerator([]byte("k"), "HS256", 0)
	require.Error(t, err)

	g, err := jwt.NewGenerator([]byte("k"), "hs384", 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, g.TTL())
}

func TestGenerateRequiresSubject(t *testing.T) {
	g := newGenerator(t, &fakeClock{t: time.Now()})

	_, _, err := g.GenerateAccessToken("  ")
	require.Error(t, err)
}
