package core

import (
	"context"

	"github.com/bookstore-api/tokenauth/verifier"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	identityKey contextKey = iota
)

// GetIdentity retrieves the verified identity from the context.
//
// Example usage:
//
//	identity, err := core.GetIdentity(r.Context())
//	if err != nil {
//	    return err
//	}
func GetIdentity(ctx context.Context) (*verifier.Identity, error) {
	identity, ok := ctx.Value(identityKey).(*verifier.Identity)
	if !ok || identity == nil {
		return nil, ErrIdentityNotFound
	}
	return identity, nil
}

// SetIdentity stores a verified identity in the context.
// Adapters call it after a successful CheckToken.
func SetIdentity(ctx context.Context, identity *verifier.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// HasIdentity checks if an identity exists in the context without retrieving it.
func HasIdentity(ctx context.Context) bool {
	identity, ok := ctx.Value(identityKey).(*verifier.Identity)
	return ok && identity != nil
}
