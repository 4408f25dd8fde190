package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded, verified session artifact held by a caller
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	LoginName      string     `json:"login,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetLogin() string {
	return s.LoginName
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}

	session := &SessionObject{
		UserID:    claims.UserID(),
		LoginName: claims.Login(),
	}

	if jc, ok := claims.(*JWTClaims); ok {
		session.Issuer = jc.RegisteredClaims.Issuer
		session.Audience = jc.RegisteredClaims.Audience
	}

	if issued := claims.IssuedAt(); !issued.IsZero() {
		session.IssuedAt = &issued
	}

	if expires := claims.Expires(); !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	return session, nil
}

// sessionFromClaims builds a SessionObject from raw map claims, e.g. when
// a middleware stored the parsed *jwt.Token rather than our typed claims
func sessionFromClaims(claims jwt.MapClaims) (*SessionObject, error) {
	session := &SessionObject{}

	if sub, ok := claims["sub"].(string); ok {
		session.UserID = sub
	}

	if uid, ok := claims["uid"].(string); ok && uid != "" {
		session.UserID = uid
	}

	if login, ok := claims["login"].(string); ok {
		session.LoginName = login
	}

	if iss, ok := claims["iss"].(string); ok {
		session.Issuer = iss
	}

	switch aud := claims["aud"].(type) {
	case string:
		session.Audience = []string{aud}
	case []any:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				session.Audience = append(session.Audience, s)
			}
		}
	}

	if iat, ok := claims["iat"].(float64); ok {
		issued := time.Unix(int64(iat), 0)
		session.IssuedAt = &issued
	}

	if exp, ok := claims["exp"].(float64); ok {
		expires := time.Unix(int64(exp), 0)
		session.ExpirationDate = &expires
	}

	if session.UserID == "" {
		return nil, ErrUnableToMapClaims
	}

	return session, nil
}
