package accounts_test

import (
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		hash, err := accounts.HashPassword("s3cret-pass!")
		require.NoError(t, err)
		require.NotEmpty(t, hash)
		assert.NotEqual(t, "s3cret-pass!", hash)

		assert.NoError(t, accounts.ComparePasswordAndHash("s3cret-pass!", hash))
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := accounts.HashPassword("")
		assert.ErrorIs(t, err, accounts.ErrNoEmptyString)
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		a, err := accounts.HashPassword("s3cret-pass!")
		require.NoError(t, err)
		b, err := accounts.HashPassword("s3cret-pass!")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := accounts.HashPassword("s3cret-pass!")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		err := accounts.ComparePasswordAndHash("not-the-password", hash)
		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	})

	t.Run("garbage hash", func(t *testing.T) {
		err := accounts.ComparePasswordAndHash("s3cret-pass!", "not-a-bcrypt-hash")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	a := accounts.RandomPasswordHash()
	b := accounts.RandomPasswordHash()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestBcryptHasher(t *testing.T) {
	var hasher accounts.PasswordAuthenticator = accounts.BcryptHasher{}

	hash, err := hasher.HashPassword("s3cret-pass!")
	require.NoError(t, err)
	assert.NoError(t, hasher.ComparePasswordAndHash("s3cret-pass!", hash))
}
