package service

import "net/http"

// ErrorKind classifies client-facing failures of the session flow.
type ErrorKind string

const (
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindBadRequest   ErrorKind = "bad_request"
)

// Sentinels for errors.Is; any AuthError of the same kind matches.
var (
	ErrConflict     = &AuthError{Kind: KindConflict}
	ErrUnauthorized = &AuthError{Kind: KindUnauthorized}
	ErrBadRequest   = &AuthError{Kind: KindBadRequest}
)

// AuthError is returned to callers for expected failures and carries the
// message and HTTP status to respond with.
type AuthError struct {
	Kind   ErrorKind
	Detail string
	Status int
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return e.Detail
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

const (
	detailEmailTaken          = "Email already registered"
	detailBadCredentials      = "Incorrect email or password"
	detailInvalidCredentials  = "Could not validate credentials"
	detailInvalidTokenPattern = "Invalid token: %s"
)

// Registration conflicts answer 400, matching what existing clients expect.
func newConflict(detail string) *AuthError {
	return &AuthError{Kind: KindConflict, Detail: detail, Status: http.StatusBadRequest}
}

func newUnauthorized(detail string) *AuthError {
	return &AuthError{Kind: KindUnauthorized, Detail: detail, Status: http.StatusUnauthorized}
}

func newBadRequest(detail string) *AuthError {
	return &AuthError{Kind: KindBadRequest, Detail: detail, Status: http.StatusBadRequest}
}
