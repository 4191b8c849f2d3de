package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/leadflow/leadflow-api/internal/domain"
	"github.com/leadflow/leadflow-api/internal/identity/google"
	"github.com/leadflow/leadflow-api/internal/jwt"
	"github.com/leadflow/leadflow-api/internal/password"
	"github.com/leadflow/leadflow-api/internal/repository"
)

const (
	tracerName      = "github.com/leadflow/leadflow-api/internal/service"
	tokenTypeBearer = "bearer"
)

// IdentityVerifier validates an ID token from an external provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*domain.ExternalIdentity, error)
}

// UserView is the public projection of a user.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthTokensWithUser is returned by every flow that starts a session.
type AuthTokensWithUser struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        UserView `json:"user"`
}

// NewUser holds the fields needed to create an account from either flow.
type NewUser struct {
	Email        string
	FullName     string
	PasswordHash string
	GoogleID     string
	Origin       domain.UserOrigin
}

// AuthService implements registration, login and session lookup.
type AuthService struct {
	users    repository.UserRepository
	hasher   *password.Hasher
	tokens   *jwt.Generator
	identity IdentityVerifier
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithClock overrides the time source used for user timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAuthService(
	users repository.UserRepository,
	hasher *password.Hasher,
	tokens *jwt.Generator,
	identity IdentityVerifier,
	logger *zap.Logger,
	opts ...Option,
) *AuthService {
	if logger == nil {
		logger = zap.L()
	}
	s := &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		identity: identity,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a local account and starts a session for it.
func (s *AuthService) Register(ctx context.Context, email, fullName, plain string) (AuthTokensWithUser, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return AuthTokensWithUser{}, newBadRequest("Email is required.")
	}
	if plain == "" {
		return AuthTokensWithUser{}, newBadRequest("Password is required.")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthTokensWithUser{}, newConflict(detailEmailTaken)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		span.RecordError(err)
		return AuthTokensWithUser{}, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := s.hasher.Hash(plain)
	if err != nil {
		// bcrypt refuses inputs longer than 72 bytes
		span.RecordError(err)
		return AuthTokensWithUser{}, newBadRequest("Password is not acceptable.")
	}

	created, err := s.createUser(ctx, NewUser{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hashed,
		Origin:       domain.OriginLocal,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return AuthTokensWithUser{}, newConflict(detailEmailTaken)
	}
	if err != nil {
		span.RecordError(err)
		return AuthTokensWithUser{}, err
	}

	resp, err := s.startSession(created)
	if err != nil {
		span.RecordError(err)
		return AuthTokensWithUser{}, err
	}

	s.audit("auth.register.success", "user_id", created.ID)
	return resp, nil
}

// Login authenticates local credentials. Every failure reports the same
// message so callers cannot tell which part was wrong.
func (s *AuthService) Login(ctx context.Context, email, plain string) (AuthTokensWithUser, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.audit("auth.login.failure", "reason", "unknown_email")
		return AuthTokensWithUser{}, newUnauthorized(detailBadCredentials)
	}
	if err != nil {
		span.RecordError(err)
		return AuthTokensWithUser{}, fmt.Errorf("load user: %w", err)
	}

	if !user.HasPassword() || !s.hasher.Verify(plain, user.PasswordHash) {
		s.audit("auth.login.failure", "reason", "bad_password", "user_id", user.ID)
		return AuthTokensWithUser{}, newUnauthorized(detailBadCredentials)
	}
	if !user.IsActive {
		s.audit("auth.login.failure", "reason", "inactive", "user_id", user.ID)
		return AuthTokensWithUser{}, newUnauthorized(detailBadCredentials)
	}

	resp, err := s.startSession(user)
	if err != nil {
		span.RecordError(err)
		return AuthTokensWithUser{}, err
	}

	s.audit("auth.login.success", "user_id", user.ID)
	return resp, nil
}

// GoogleLogin signs in with a Google ID token, creating the account on the
// first visit of a verified email.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (AuthTokensWithUser, error) {
	ctx, span := s.startSpan(ctx, "AuthService.GoogleLogin")
	defer span.End()

	identity, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		span.RecordError(err)
		return AuthTokensWithUser{}, newBadRequest(fmt.Sprintf(detailInvalidTokenPattern, verifierDetail(err)))
	}

	if !identity.EmailVerified {
		s.audit("auth.google.failure", "reason", "email_not_verified", "provider", identity.Provider)
		return AuthTokensWithUser{}, newBadRequest(fmt.Sprintf(detailInvalidTokenPattern, "email not verified"))
	}

	email := normalizeEmail(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		created, createErr := s.createUser(ctx, NewUser{
			Email:    email,
			FullName: identity.Name,
			GoogleID: identity.Subject,
			Origin:   domain.OriginGoogle,
		})
		switch {
		case createErr == nil:
			user, err = created, nil
			s.audit("auth.google.user_created", "user_id", user.ID, "provider", identity.Provider)
		case errors.Is(createErr, domain.ErrEmailTaken):
			// lost a concurrent first login for the same email
			user, err = s.users.GetByEmail(ctx, email)
		default:
			err = createErr
		}
		if err != nil {
			span.RecordError(err)
			return AuthTokensWithUser{}, fmt.Errorf("provision google user: %w", err)
		}
	default:
		span.RecordError(err)
		return AuthTokensWithUser{}, fmt.Errorf("load user: %w", err)
	}

	if !user.IsActive {
		s.audit("auth.google.failure", "reason", "inactive", "user_id", user.ID)
		return AuthTokensWithUser{}, newUnauthorized(detailInvalidCredentials)
	}

	resp, err := s.startSession(user)
	if err != nil {
		span.RecordError(err)
		return AuthTokensWithUser{}, err
	}

	s.audit("auth.google.success", "user_id", user.ID, "provider", identity.Provider, "issuer", identity.Issuer)
	return resp, nil
}

// CurrentUser resolves a bearer token to the active user it was issued for.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (UserView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.CurrentUser")
	defer span.End()

	subject, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return UserView{}, newUnauthorized(detailInvalidCredentials)
	}
	span.SetAttributes(attribute.String("user.id", subject))

	user, err := s.users.GetByID(ctx, subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return UserView{}, newUnauthorized(detailInvalidCredentials)
	}
	if err != nil {
		span.RecordError(err)
		return UserView{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return UserView{}, newUnauthorized(detailInvalidCredentials)
	}

	return newUserView(user), nil
}

func (s *AuthService) createUser(ctx context.Context, in NewUser) (domain.User, error) {
	now := s.now().UTC()
	created, err := s.users.Create(ctx, domain.User{
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: in.PasswordHash,
		IsActive:     true,
		GoogleID:     in.GoogleID,
		Origin:       in.Origin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *AuthService) startSession(user domain.User) (AuthTokensWithUser, error) {
	token, _, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return AuthTokensWithUser{}, fmt.Errorf("issue access token: %w", err)
	}
	return AuthTokensWithUser{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		User:        newUserView(user),
	}, nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, keyvals ...any) {
	s.logger.Sugar().Infow(event, keyvals...)
}

func newUserView(user domain.User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func verifierDetail(err error) string {
	var verr *google.VerifyError
	if errors.As(err, &verr) && verr.Reason != nil {
		return verr.Reason.Error()
	}
	return err.Error()
}

func normalizeEmail(value string) string {
	return strings.TrimSpace(value)
}
