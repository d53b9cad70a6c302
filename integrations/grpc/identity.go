package tokengrpc

import (
	"context"

	"github.com/bookstore-api/tokenauth/core"
	"github.com/bookstore-api/tokenauth/verifier"
)

// GetIdentity retrieves the verified identity from the call context.
//
// Example:
//
//	identity, err := tokengrpc.GetIdentity(ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "no identity")
//	}
func GetIdentity(ctx context.Context) (*verifier.Identity, error) {
	return core.GetIdentity(ctx)
}

// MustGetIdentity retrieves the identity or panics.
// Use only on methods that are neither excluded nor credentials-optional.
func MustGetIdentity(ctx context.Context) *verifier.Identity {
	identity, err := core.GetIdentity(ctx)
	if err != nil {
		panic(err)
	}
	return identity
}

// HasIdentity checks if an identity exists in the context.
func HasIdentity(ctx context.Context) bool {
	return core.HasIdentity(ctx)
}
