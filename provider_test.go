package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProvider(store *MockAccounts) *accounts.AccountProvider {
	return accounts.NewAccountProvider(store).WithHasher(plainHasher{})
}

func TestVerifyIdentity(t *testing.T) {
	accountID := uuid.New()

	record := func() *accounts.Account {
		return &accounts.Account{
			ID:           accountID,
			Login:        "alice",
			Email:        "alice@example.com",
			PasswordHash: "hashed:s3cret-pass",
		}
	}

	t.Run("returns identity for valid credentials", func(t *testing.T) {
		store := &MockAccounts{}
		store.On("GetByLogin", mock.Anything, "alice").Return(record(), nil)
		store.On("TrackSuccessfulLogin", mock.Anything, mock.Anything).Return(nil)

		identity, err := newTestProvider(store).VerifyIdentity(context.Background(), "alice", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, accountID.String(), identity.ID())
		assert.Equal(t, "alice", identity.Login())
		assert.Equal(t, "alice@example.com", identity.Email())
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		store := &MockAccounts{}
		store.On("GetByLogin", mock.Anything, "alice").Return(record(), nil)
		store.On("TrackAttemptedLogin", mock.Anything, mock.Anything).Return(nil)

		_, err := newTestProvider(store).VerifyIdentity(context.Background(), "alice", "wrong")

		assert.Equal(t, accounts.ErrMismatchedHashAndPassword, err)
		store.AssertCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
	})

	t.Run("unknown login looks like a credential mismatch", func(t *testing.T) {
		store := &MockAccounts{}
		store.On("GetByLogin", mock.Anything, "ghost").Return(nil, repository.NewRecordNotFound())

		_, err := newTestProvider(store).VerifyIdentity(context.Background(), "ghost", "whatever")

		assert.Equal(t, accounts.ErrMismatchedHashAndPassword, err)
	})

	t.Run("cooldown kicks in after too many attempts", func(t *testing.T) {
		now := time.Now()
		throttled := record()
		throttled.LoginAttempts = accounts.MaxLoginAttempts + 1
		throttled.LoginAttemptAt = &now

		store := &MockAccounts{}
		store.On("GetByLogin", mock.Anything, "alice").Return(throttled, nil)

		_, err := newTestProvider(store).VerifyIdentity(context.Background(), "alice", "s3cret-pass")

		assert.Equal(t, accounts.ErrTooManyLoginAttempts, err)
	})

	t.Run("attempt counter resets after the cooldown window", func(t *testing.T) {
		stale := time.Now().Add(-25 * time.Hour)
		recovered := record()
		recovered.LoginAttempts = accounts.MaxLoginAttempts + 1
		recovered.LoginAttemptAt = &stale

		store := &MockAccounts{}
		store.On("GetByLogin", mock.Anything, "alice").Return(recovered, nil)
		store.On("TrackSuccessfulLogin", mock.Anything, mock.Anything).Return(nil)

		identity, err := newTestProvider(store).VerifyIdentity(context.Background(), "alice", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Login())
	})

	t.Run("successful login tracking failure is not fatal", func(t *testing.T) {
		store := &MockAccounts{}
		store.On("GetByLogin", mock.Anything, "alice").Return(record(), nil)
		store.On("TrackSuccessfulLogin", mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := newTestProvider(store).VerifyIdentity(context.Background(), "alice", "s3cret-pass")

		assert.NoError(t, err)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	accountID := uuid.New()

	t.Run("resolves by login or email", func(t *testing.T) {
		store := &MockAccounts{}
		store.On("GetByLoginOrEmail", mock.Anything, "alice@example.com").
			Return(&accounts.Account{ID: accountID, Login: "alice", Email: "alice@example.com"}, nil)

		identity, err := newTestProvider(store).FindIdentityByIdentifier(context.Background(), "alice@example.com")

		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Login())
	})

	t.Run("unknown identifier is not found", func(t *testing.T) {
		store := &MockAccounts{}
		store.On("GetByLoginOrEmail", mock.Anything, "ghost").Return(nil, repository.NewRecordNotFound())

		_, err := newTestProvider(store).FindIdentityByIdentifier(context.Background(), "ghost")

		assert.Equal(t, accounts.ErrIdentityNotFound, err)
		assert.True(t, accounts.HasCategory(err, goerrors.CategoryNotFound))
	})
}
