package accounts

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

// RouteAuthenticator manages the session artifact at the HTTP edge: it
// turns a successful login into a signed cookie, clears it on logout, and
// guards protected routes.
type RouteAuthenticator struct {
	lifecycle      *Lifecycle
	tokens         TokenService
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
}

func NewRouteAuthenticator(lifecycle *Lifecycle, tokens TokenService, cfg Config) *RouteAuthenticator {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	return &RouteAuthenticator{
		lifecycle:      lifecycle,
		tokens:         tokens,
		cfg:            cfg,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Login runs the lifecycle login and, on success, delivers the session
// artifact as an HTTP only cookie
func (a *RouteAuthenticator) Login(c *fiber.Ctx, msg LoginMessage) (*LoginResult, error) {
	result, err := a.lifecycle.Login(c.UserContext(), msg)
	if err != nil {
		a.Logger.Error("login error: %v", err)
		return nil, err
	}

	a.setCookieToken(c, result.Token, a.cookieDuration)
	return result, nil
}

// Logout emits the clear-session instruction as an expired cookie
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) *LogoutInstruction {
	instruction := a.lifecycle.Logout()
	if instruction.ClearSession {
		a.cookieDel(c, a.cfg.GetContextKey())
	}
	return instruction
}

// ProtectedRoute guards a route group with JWT validation; verified claims
// end up in c.Locals under the configured context key
func (a *RouteAuthenticator) ProtectedRoute(errorHandler fiber.ErrorHandler) fiber.Handler {
	contextKey := a.cfg.GetContextKey()
	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SuccessHandler: func(c *fiber.Ctx) error {
			// propagate the verified claims on the request context so
			// service code can read the principal without fiber types
			if claims, ok := c.Locals(contextKey).(AuthClaims); ok {
				c.SetUserContext(WithClaimsContext(c.UserContext(), claims))
			}
			return c.Next()
		},
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.cfg.GetSigningKey()),
			JWTAlg: a.cfg.GetSigningMethod(),
		},
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		TokenValidator: tokenValidatorAdapter{tokens: a.tokens},
		RequiredUse:    TokenUseSession,
	})
}

// GetSession extracts the verified session from the request locals
func GetSession(c *fiber.Ctx, key string) (*SessionObject, error) {
	stored := c.Locals(key)
	if stored == nil {
		return nil, ErrUnableToFindSession
	}

	switch v := stored.(type) {
	case AuthClaims:
		return sessionFromAuthClaims(v)
	case jwtware.AuthClaims:
		return &SessionObject{UserID: v.UserID(), LoginName: v.Login()}, nil
	case *jwt.Token:
		claims, ok := v.Claims.(jwt.MapClaims)
		if claims == nil || !ok {
			return nil, ErrUnableToMapClaims
		}
		return sessionFromClaims(claims)
	default:
		return nil, ErrUnableToDecodeSession
	}
}

type tokenValidatorAdapter struct {
	tokens TokenService
}

func (t tokenValidatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := t.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *RouteAuthenticator) setCookieToken(c *fiber.Ctx, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// DefaultAuthErrorHandler maps middleware failures onto the error taxonomy
func DefaultAuthErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error

	if IsTokenExpiredError(err) {
		richErr = ErrTokenExpired
	} else if IsMalformedError(err) {
		richErr = ErrTokenMalformed
	} else {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "invalid authentication token").
			WithCode(goerrors.CodeUnauthorized)
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
