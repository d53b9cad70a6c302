// Package tokengin adapts tokenauth.Middleware to gin.
package tokengin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookstore-api/tokenauth"
	"github.com/bookstore-api/tokenauth/core"
	"github.com/bookstore-api/tokenauth/verifier"
)

// DefaultIdentityKey is the gin context key the identity is stored under.
const DefaultIdentityKey = "identity"

var (
	ErrMissingIdentity = errors.New("no identity found in context")
	ErrInvalidIdentity = errors.New("invalid identity type")
)

type ginMiddlewareConfig struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
}

// New creates a gin middleware that checks the request's token with m.
// On success the identity is stored both in the gin context (under
// DefaultIdentityKey unless changed with WithContextKey) and in the request
// context, where tokenauth.GetIdentity finds it.
func New(m *tokenauth.Middleware, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{
		errorHandler: DefaultErrorHandler,
		contextKey:   DefaultIdentityKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		if m.Skip(c.Request) {
			c.Next()
			return
		}

		identity, err := m.CheckRequest(c.Request)
		if err != nil {
			config.errorHandler(c, err)
			c.Abort()
			return
		}

		if identity != nil {
			c.Request = c.Request.WithContext(core.SetIdentity(c.Request.Context(), identity))
			c.Set(config.contextKey, identity)
		}

		c.Next()
	}
}

// RequireRoles returns a gin middleware that aborts with 403 unless the
// identity holds at least one of roles. Mount it after New.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := core.GetIdentity(c.Request.Context())
		if err != nil {
			DefaultErrorHandler(c, tokenauth.ErrTokenMissing)
			return
		}
		if len(roles) > 0 && !identity.HasAnyRole(roles...) {
			DefaultErrorHandler(c, fmt.Errorf("%w: requires one of %v", tokenauth.ErrForbidden, roles))
			return
		}
		c.Next()
	}
}

// DefaultErrorHandler answers with the status and body of
// tokenauth.DefaultErrorHandler.
func DefaultErrorHandler(c *gin.Context, err error) {
	status, body := tokenauth.ResponseFor(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", tokenauth.Challenge(body))
	}
	c.AbortWithStatusJSON(status, body)
}

// GetIdentity returns the identity stored by New under contextKey
// (DefaultIdentityKey when empty).
func GetIdentity(c *gin.Context, contextKey string) (*verifier.Identity, error) {
	if contextKey == "" {
		contextKey = DefaultIdentityKey
	}
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingIdentity
	}

	identity, ok := value.(*verifier.Identity)
	if !ok {
		return nil, ErrInvalidIdentity
	}

	return identity, nil
}
