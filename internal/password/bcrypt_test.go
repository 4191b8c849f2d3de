package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadflow/leadflow-api/internal/password"
)

func TestHashAndVerify(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", digest)

	require.True(t, h.Verify("correct horse", digest))
	require.False(t, h.Verify("correct horsE", digest))
	require.False(t, h.Verify("", digest))
}

func TestHashIsSalted(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	first, err := h.Hash("secret123")
	require.NoError(t, err)
	second, err := h.Hash("secret123")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, h.Verify("secret123", first))
	require.True(t, h.Verify("secret123", second))
}

func TestHashRejectsEmptyAndOversized(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	_, err := h.Hash("")
	require.ErrorIs(t, err, password.ErrEmptyPassword)

	_, err = h.Hash(strings.Repeat("a", 73))
	require.Error(t, err)
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := password.NewHasher(bcrypt.MinCost)

	require.False(t, h.Verify("secret123", ""))
	require.False(t, h.Verify("secret123", "not-a-bcrypt-hash"))
}

func TestNewHasherClampsCost(t *testing.T) {
	h := password.NewHasher(1)

	digest, err := h.Hash("secret123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	require.Equal(t, bcrypt.DefaultCost, cost)
}
