package accounts_test

import (
	"os"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvConfig(t *testing.T) {
	t.Run("signing key is required", func(t *testing.T) {
		// Setenv registers the restore, Unsetenv makes the key truly absent
		t.Setenv("AUTH_SIGNING_KEY", "")
		os.Unsetenv("AUTH_SIGNING_KEY")

		_, err := accounts.NewEnvConfig()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("AUTH_SIGNING_KEY", "super-secret")

		cfg, err := accounts.NewEnvConfig()
		require.NoError(t, err)

		assert.Equal(t, "super-secret", cfg.GetSigningKey())
		assert.Equal(t, "HS256", cfg.GetSigningMethod())
		assert.Equal(t, "session", cfg.GetContextKey())
		assert.Equal(t, 24, cfg.GetTokenExpiration())
		assert.Equal(t, 1, cfg.GetResetTokenDuration())
		assert.Equal(t, "cookie:session,header:Authorization", cfg.GetTokenLookup())
		assert.Equal(t, "Bearer", cfg.GetAuthScheme())
		assert.Equal(t, "accounts", cfg.GetIssuer())
		assert.Empty(t, cfg.GetAudience())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("AUTH_SIGNING_KEY", "super-secret")
		t.Setenv("AUTH_TOKEN_EXPIRATION", "72")
		t.Setenv("AUTH_ISSUER", "example.com")
		t.Setenv("AUTH_AUDIENCE", "web,mobile")

		cfg, err := accounts.NewEnvConfig()
		require.NoError(t, err)

		assert.Equal(t, 72, cfg.GetTokenExpiration())
		assert.Equal(t, "example.com", cfg.GetIssuer())
		assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
	})
}

func TestNewSMTPConfig(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_FROM", "noreply@example.com")

	cfg, err := accounts.NewSMTPConfig()
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "noreply@example.com", cfg.From)
}
