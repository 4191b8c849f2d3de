// Package googletest mints Google-style ID tokens signed with a throwaway
// RSA key, for tests that exercise the real verifier.
package googletest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jose "github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
)

const ClientID = "leadflow-test.apps.googleusercontent.com"

// Issuer signs ID tokens with its own key pair.
type Issuer struct {
	key    *rsa.PrivateKey
	signer jose.Signer
}

// Claims describes the token to mint. Zero values get sensible defaults.
type Claims struct {
	Issuer        string
	Audience      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	IssuedAt      time.Time
	Expiry        time.Time
}

// NewIssuer generates a fresh RSA key and signer.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	return &Issuer{key: key, signer: signer}
}

// KeySet returns a key set that trusts this issuer's public key.
func (i *Issuer) KeySet() oidc.KeySet {
	return &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&i.key.PublicKey}}
}

// Mint signs c and returns the compact token.
func (i *Issuer) Mint(t testing.TB, c Claims) string {
	t.Helper()

	now := time.Now()
	if c.Issuer == "" {
		c.Issuer = "https://accounts.google.com"
	}
	if c.Audience == "" {
		c.Audience = ClientID
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = now
	}
	if c.Expiry.IsZero() {
		c.Expiry = c.IssuedAt.Add(time.Hour)
	}

	payload := map[string]any{
		"iss":            c.Issuer,
		"aud":            c.Audience,
		"sub":            c.Subject,
		"email":          c.Email,
		"email_verified": c.EmailVerified,
		"name":           c.Name,
		"iat":            c.IssuedAt.Unix(),
		"exp":            c.Expiry.Unix(),
	}

	raw, err := josejwt.Signed(i.signer).Claims(payload).Serialize()
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return raw
}
