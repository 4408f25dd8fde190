package accounts_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyLogger struct {
	lines []string
}

func (s *spyLogger) Debug(format string, args ...any) { s.record(format, args...) }
func (s *spyLogger) Info(format string, args ...any)  { s.record(format, args...) }
func (s *spyLogger) Warn(format string, args ...any)  { s.record(format, args...) }
func (s *spyLogger) Error(format string, args ...any) { s.record(format, args...) }

func (s *spyLogger) record(format string, args ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

func (s *spyLogger) contains(substr string) bool {
	for _, line := range s.lines {
		if line == substr {
			return true
		}
	}
	return false
}

func TestLogMailer(t *testing.T) {
	t.Run("activation", func(t *testing.T) {
		spy := &spyLogger{}
		mailer := accounts.NewLogMailer(spy)

		err := mailer.SendActivation(context.Background(), "alice@example.com", "alice", "tok-123")
		require.NoError(t, err)

		assert.True(t, spy.contains("to: alice@example.com (alice)"))
		assert.True(t, spy.contains("link: /activate/tok-123"))
	})

	t.Run("password reset", func(t *testing.T) {
		spy := &spyLogger{}
		mailer := accounts.NewLogMailer(spy)

		err := mailer.SendPasswordReset(context.Background(), "alice@example.com", "reset-tok")
		require.NoError(t, err)

		assert.True(t, spy.contains("to: alice@example.com"))
		assert.True(t, spy.contains("link: /password-reset/reset-tok"))
	})
}

func TestSMTPMailerCancelledContext(t *testing.T) {
	mailer := accounts.NewSMTPMailer(accounts.SMTPConfig{Host: "localhost", Port: 2525})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.SendActivation(ctx, "alice@example.com", "alice", "tok-123")
	assert.Error(t, err)
}
