// Package tokenecho adapts tokenauth.Middleware to echo.
package tokenecho

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookstore-api/tokenauth"
	"github.com/bookstore-api/tokenauth/core"
	"github.com/bookstore-api/tokenauth/verifier"
)

var DefaultIdentityKey = "identity"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
}

// New creates an echo middleware that checks the request's token with m.
// On success the identity is stored in the echo context and in the request
// context.
func New(m *tokenauth.Middleware, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler: DefaultErrorHandler,
		contextKey:   DefaultIdentityKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if m.Skip(r) {
				return next(c)
			}

			identity, err := m.CheckRequest(r)
			if err != nil {
				return config.errorHandler(c, err)
			}

			if identity != nil {
				c.SetRequest(r.WithContext(core.SetIdentity(r.Context(), identity)))
				c.Set(config.contextKey, identity)
			}

			return next(c)
		}
	}
}

// RequireRoles returns an echo middleware that answers 403 unless the
// identity holds at least one of roles. Mount it after New.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := core.GetIdentity(c.Request().Context())
			if err != nil {
				return DefaultErrorHandler(c, tokenauth.ErrTokenMissing)
			}
			if len(roles) > 0 && !identity.HasAnyRole(roles...) {
				return DefaultErrorHandler(c, fmt.Errorf("%w: requires one of %v", tokenauth.ErrForbidden, roles))
			}
			return next(c)
		}
	}
}

// DefaultErrorHandler answers with the status and body of
// tokenauth.DefaultErrorHandler.
func DefaultErrorHandler(c echo.Context, err error) error {
	status, body := tokenauth.ResponseFor(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set("WWW-Authenticate", tokenauth.Challenge(body))
	}
	return c.JSON(status, body)
}

// GetIdentity extracts the identity from the echo context.
func GetIdentity(c echo.Context, contextKey string) (*verifier.Identity, bool) {
	if contextKey == "" {
		contextKey = DefaultIdentityKey
	}
	identity, ok := c.Get(contextKey).(*verifier.Identity)
	return identity, ok && identity != nil
}
