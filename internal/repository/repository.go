package repository

import (
	"context"

	"github.com/leadflow/leadflow-api/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository = (*MemoryUserRepo)(nil)
	_ UserRepository = (*MongoUserRepo)(nil)
	_ UserRepository = (*PostgresUserRepo)(nil)
)

// UserRepository persists CRM accounts. Lookups that find nothing return
// domain.ErrUserNotFound; Create returns domain.ErrEmailTaken when the email
// is already stored.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}
