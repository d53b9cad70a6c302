// Package tokengrpc provides gRPC server interceptors that check bearer
// tokens and make the verified identity available in the call context.
//
// # Basic Usage
//
//	v, err := verifier.New(
//	    verifier.WithKeyProvider(provider),
//	    verifier.WithAudience("account"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	interceptor, err := tokengrpc.New(
//	    tokengrpc.WithVerifier(v),
//	    tokengrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	    tokengrpc.WithMethodRoles(map[string][]string{
//	        "/bookstore.v1.Catalog/DeleteBook": {"admin"},
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// Handlers read the identity with GetIdentity or MustGetIdentity.
//
// # Status Codes
//
// DefaultErrorHandler maps failures to Unauthenticated (missing token, bad
// signature, expired), PermissionDenied (wrong audience or issuer, role
// check), InvalidArgument (malformed metadata or token) and Unavailable
// (the IdP could not provide a signing key).
package tokengrpc
