package repository_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow-api/internal/domain"
	"github.com/leadflow/leadflow-api/internal/repository"
)

func TestPostgresGetByIDRejectsMalformedIDWithoutQuerying(t *testing.T) {
	// pgxpool connects lazily, so nothing listens on this address.
	pool, err := pgxpool.New(context.Background(), "postgres://leadflow@127.0.0.1:1/leadflow?connect_timeout=1")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := repository.NewPostgresUserRepo(pool)
	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
