package accounts_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      accounts.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      accounts.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := accounts.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      accounts.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      accounts.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := accounts.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHasCategory(t *testing.T) {
	assert.True(t, accounts.HasCategory(accounts.ErrAccountDisabled, goerrors.CategoryAuthz))
	assert.False(t, accounts.HasCategory(accounts.ErrAccountDisabled, goerrors.CategoryAuth))
	assert.False(t, accounts.HasCategory(errors.New("plain"), goerrors.CategoryAuth))
	assert.False(t, accounts.HasCategory(nil, goerrors.CategoryAuth))
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrIdentityNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, accounts.ErrIdentityNotFound.Category)
		assert.Equal(t, "identity not found", accounts.ErrIdentityNotFound.Message)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, "INVALID_CREDENTIALS", accounts.ErrMismatchedHashAndPassword.TextCode)
		assert.Equal(t, goerrors.CodeUnauthorized, accounts.ErrMismatchedHashAndPassword.Code)
	})

	t.Run("ErrTooManyLoginAttempts", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrTooManyLoginAttempts.Category)
		assert.Equal(t, "TOO_MANY_ATTEMPTS", accounts.ErrTooManyLoginAttempts.TextCode)
	})

	t.Run("ErrAccountDisabled", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuthz, accounts.ErrAccountDisabled.Category)
		assert.Equal(t, accounts.TextCodeAccountDisabled, accounts.ErrAccountDisabled.TextCode)
		assert.Equal(t, goerrors.CodeForbidden, accounts.ErrAccountDisabled.Code)
	})

	t.Run("ErrTokenExpired", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrTokenExpired.Category)
		assert.Equal(t, accounts.TextCodeTokenExpired, accounts.ErrTokenExpired.TextCode)
	})

	t.Run("ErrTokenMalformed", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrTokenMalformed.Category)
		assert.Equal(t, accounts.TextCodeTokenMalformed, accounts.ErrTokenMalformed.TextCode)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryBadInput, accounts.ErrNoEmptyString.Category)
	})
}
