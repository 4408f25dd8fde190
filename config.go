package accounts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig implements Config from environment variables
type EnvConfig struct {
	SigningKey         string   `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod      string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey         string   `env:"AUTH_CONTEXT_KEY" envDefault:"session"`
	TokenExpiration    int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"24"`
	ResetTokenDuration int      `env:"AUTH_RESET_TOKEN_DURATION" envDefault:"1"`
	TokenLookup        string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"cookie:session,header:Authorization"`
	AuthScheme         string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer             string   `env:"AUTH_ISSUER" envDefault:"accounts"`
	Audience           []string `env:"AUTH_AUDIENCE" envSeparator:","`
}

var _ Config = (*EnvConfig)(nil)

// NewEnvConfig loads configuration from environment variables
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string      { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string   { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string      { return c.ContextKey }
func (c *EnvConfig) GetTokenExpiration() int    { return c.TokenExpiration }
func (c *EnvConfig) GetResetTokenDuration() int { return c.ResetTokenDuration }
func (c *EnvConfig) GetTokenLookup() string     { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string      { return c.AuthScheme }
func (c *EnvConfig) GetIssuer() string          { return c.Issuer }
func (c *EnvConfig) GetAudience() []string      { return c.Audience }

// NewSMTPConfig loads the mailer settings from environment variables
func NewSMTPConfig() (*SMTPConfig, error) {
	cfg := &SMTPConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
