// Package core provides the transport-agnostic token check used by the HTTP,
// gin, echo and gRPC adapters.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/bookstore-api/tokenauth/verifier"
)

// TokenVerifier verifies a raw bearer token. *verifier.Verifier implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*verifier.Identity, error)
}

// Logger defines an optional logging interface for the core middleware.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Core is the framework-agnostic token check engine.
type Core struct {
	verifier            TokenVerifier
	credentialsOptional bool
	logger              Logger
}

// CheckToken verifies a raw token and returns the identity it carries.
//
//   - If token is empty and credentials are optional, returns (nil, nil)
//   - If token is empty and credentials are required, returns ErrTokenMissing
//   - Otherwise, returns the result of the configured verifier
func (c *Core) CheckToken(ctx context.Context, token string) (*verifier.Identity, error) {
	if token == "" {
		if c.credentialsOptional {
			if c.logger != nil {
				c.logger.Debug("No token provided, but credentials are optional")
			}
			return nil, nil
		}

		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}

		return nil, ErrTokenMissing
	}

	start := time.Now()
	identity, err := c.verifier.Verify(ctx, token)
	duration := time.Since(start)

	if err != nil {
		if c.logger != nil {
			// An unreachable IdP is our problem; everything else is the caller's.
			if errors.Is(err, verifier.ErrKeyUnavailable) {
				c.logger.Error("Token verification failed", "code", ErrorCode(err), "error", err, "duration", duration)
			} else {
				c.logger.Warn("Token verification failed", "code", ErrorCode(err), "error", err, "duration", duration)
			}
		}

		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("Token verified successfully", "email", identity.Email, "duration", duration)
	}

	return identity, nil
}
