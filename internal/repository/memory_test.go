package repository_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow-api/internal/domain"
	"github.com/leadflow/leadflow-api/internal/repository"
)

func TestMemoryUserRepoCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepo()
	now := time.Now().UTC()

	created, err := repo.Create(ctx, domain.User{
		Email:        "jane@example.com",
		FullName:     "Jane Doe",
		PasswordHash: "digest",
		IsActive:     true,
		Origin:       domain.OriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	byEmail, err := repo.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, created, byEmail)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, byID)
}

func TestMemoryUserRepoNotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepo()

	_, err := repo.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestMemoryUserRepoEmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepo()

	_, err := repo.Create(ctx, domain.User{Email: "jane@example.com"})
	require.NoError(t, err)

	_, err = repo.GetByEmail(ctx, "Jane@Example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestMemoryUserRepoRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepo()

	_, err := repo.Create(ctx, domain.User{Email: "jane@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.User{Email: "jane@example.com"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestMemoryUserRepoConcurrentCreateKeepsEmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepo()

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, domain.User{Email: "race@example.com", FullName: fmt.Sprint(i)})
			if err == nil {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, created.Load())
}
