//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow-api/internal/domain"
	"github.com/leadflow/leadflow-api/internal/repository"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL must be set for integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, repository.RunMigrations(ctx, pool))
	return pool
}

func TestPostgresUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostgresUserRepo(setupPostgres(t))
	email := "pg-" + uuid.NewString() + "@example.com"
	now := time.Now().UTC().Truncate(time.Microsecond)

	created, err := repo.Create(ctx, domain.User{
		Email:     email,
		FullName:  "Google User",
		IsActive:  true,
		GoogleID:  "1234567890",
		Origin:    domain.OriginGoogle,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Empty(t, created.PasswordHash)
	require.False(t, created.HasPassword())

	byEmail, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)
	require.Equal(t, "1234567890", byEmail.GoogleID)
	require.Equal(t, domain.OriginGoogle, byEmail.Origin)
	require.True(t, now.Equal(byEmail.CreatedAt))

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, email, byID.Email)

	_, err = repo.Create(ctx, domain.User{Email: email, PasswordHash: "digest", IsActive: true})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = repo.GetByEmail(ctx, "missing-"+email)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostgresUserRepoMalformedID(t *testing.T) {
	repo := repository.NewPostgresUserRepo(setupPostgres(t))

	for _, id := range []string{"not-a-uuid", "", "42"} {
		_, err := repo.GetByID(context.Background(), id)
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	}
}
