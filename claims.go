package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenUse values discriminate session artifacts from reset grants
const (
	// TokenUseSession marks a signed session artifact issued at login
	TokenUseSession = "session"
	// TokenUsePasswordReset marks a short lived password reset grant
	TokenUsePasswordReset = "password_reset"
)

// AuthClaims represents the verified content of a signed token
type AuthClaims interface {
	Subject() string
	UserID() string
	Login() string
	Use() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	LoginName string `json:"login,omitempty"`
	TokenUse  string `json:"token_use,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the account ID the token was minted for
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Login returns the login name carried in the token
func (c *JWTClaims) Login() string {
	return c.LoginName
}

// Use returns the token_use discriminator, defaulting to session for
// tokens minted before the claim existed
func (c *JWTClaims) Use() string {
	if c.TokenUse == "" {
		return TokenUseSession
	}
	return c.TokenUse
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issue time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
