/*
Package core provides the transport-agnostic token check that every
adapter (net/http, gin, echo, gRPC) is built on.

	┌─────────────────────────────────────────────┐
	│         Transport Adapters                  │
	│  (net/http, gin, echo, gRPC)                │
	└────────────────┬────────────────────────────┘
	                 │
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Core (this package)                │
	│  • Missing / optional credentials           │
	│  • Logging and timing                       │
	│  • Identity context helpers                 │
	└────────────────┬────────────────────────────┘
	                 │
	                 ▼
	┌─────────────────────────────────────────────┐
	│          verifier.Verifier                  │
	│  (signature, expiry, audience, issuer)      │
	└─────────────────────────────────────────────┘

# Basic Usage

	c, err := core.New(
	    core.WithVerifier(v),
	    core.WithCredentialsOptional(false),
	)
	if err != nil {
	    log.Fatal(err)
	}

	identity, err := c.CheckToken(ctx, rawToken)

# Context Helpers

	ctx = core.SetIdentity(ctx, identity)

	identity, err := core.GetIdentity(ctx)
	if errors.Is(err, core.ErrIdentityNotFound) {
	    // no verified identity on this request
	}

# Error Codes

ErrorCode maps any error returned by CheckToken to a stable string code
(the verifier.VerifyError code, "token_missing", or "internal_error"),
which adapters use for metrics labels and response bodies.
*/
package core
