package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"

	"github.com/leadflow/leadflow-api/internal/domain"
)

const (
	providerName = "google"
	jwksURL      = "https://www.googleapis.com/oauth2/v3/certs"
	issuerURL    = "https://accounts.google.com"
)

// AllowedIssuers lists the issuer values Google puts into ID tokens.
var AllowedIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	ErrInvalidToken  = errors.New("invalid google id token")
	ErrWrongIssuer   = errors.New("Wrong issuer.")
	ErrNotConfigured = errors.New("google login is not configured")
)

// VerifyError reports why a token was rejected. It matches ErrInvalidToken
// and the underlying reason with errors.Is.
type VerifyError struct {
	Reason error
}

func (e *VerifyError) Error() string {
	return ErrInvalidToken.Error() + ": " + e.Reason.Error()
}

func (e *VerifyError) Unwrap() []error {
	return []error{ErrInvalidToken, e.Reason}
}

func reject(reason error) error {
	return &VerifyError{Reason: reason}
}

// Verifier validates Google ID tokens issued for a single client id.
// It returns identity facts only; user lookup and creation happen elsewhere.
type Verifier struct {
	clientID string
	verifier *oidc.IDTokenVerifier
	logger   *zap.Logger
}

// Option customises a Verifier.
type Option func(*options)

type options struct {
	keySet oidc.KeySet
	now    func() time.Time
	logger *zap.Logger
}

// WithKeySet replaces Google's remote JWKS, mainly for tests.
func WithKeySet(keySet oidc.KeySet) Option {
	return func(o *options) { o.keySet = keySet }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for verification outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds a Verifier for clientID. Signature keys are fetched lazily from
// Google's JWKS endpoint and cached by the key set.
func New(ctx context.Context, clientID string, opts ...Option) *Verifier {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keySet == nil {
		o.keySet = oidc.NewRemoteKeySet(ctx, jwksURL)
	}
	if o.logger == nil {
		o.logger = zap.L()
	}

	clientID = strings.TrimSpace(clientID)
	v := &Verifier{clientID: clientID, logger: o.logger}
	if clientID == "" {
		return v
	}

	v.verifier = oidc.NewVerifier(issuerURL, o.keySet, &oidc.Config{
		ClientID: clientID,
		// issuer is matched against AllowedIssuers below
		SkipIssuerCheck: true,
		Now:             o.now,
	})
	return v
}

// Verify checks rawIDToken's signature, expiry, audience and issuer and
// returns the verified identity.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*domain.ExternalIdentity, error) {
	if v.verifier == nil {
		return nil, reject(ErrNotConfigured)
	}
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, reject(errors.New("token is empty"))
	}

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		v.logger.Warn("google id_token verification failed", zap.Error(err))
		return nil, reject(err)
	}

	if !issuerAllowed(idToken.Issuer) {
		v.logger.Warn("google id_token issuer rejected", zap.String("issuer", idToken.Issuer))
		return nil, reject(ErrWrongIssuer)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, reject(fmt.Errorf("parse claims: %w", err))
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, reject(errors.New("missing required claims"))
	}

	v.logger.Debug("google oidc verified",
		zap.String("issuer", idToken.Issuer),
		zap.Bool("email_verified", claims.EmailVerified),
		zap.Int64("expiry_unix", idToken.Expiry.Unix()),
	)

	return &domain.ExternalIdentity{
		Provider:      providerName,
		Subject:       claims.Subject,
		Issuer:        idToken.Issuer,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

func issuerAllowed(issuer string) bool {
	for _, allowed := range AllowedIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}
