/*
Package tokenauth provides net/http middleware that checks bearer tokens
issued by a Keycloak-style identity provider.

The building blocks live in sub-packages:

  - jwks: fetches and caches the IdP's signing keys
  - verifier: verifies a token against those keys and returns an Identity
  - core: transport-agnostic token check shared by every adapter
  - framework/gin, framework/echo, integrations/grpc: adapters

# Basic Usage

	certsURL, _ := url.Parse("http://localhost:8180/realms/books/protocol/openid-connect/certs")

	provider, err := jwks.NewProvider(jwks.WithKeysURL(certsURL))
	if err != nil {
	    log.Fatal(err)
	}

	v, err := verifier.New(
	    verifier.WithKeyProvider(provider),
	    verifier.WithAudience("account"),
	    verifier.WithClientID("bookstore"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	m, err := tokenauth.New(tokenauth.WithVerifier(v))
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/api/profile", m.RequireToken(profileHandler))
	http.Handle("/api/admin", m.RequireToken(m.RequireRoles("admin")(adminHandler)))

Handlers read the identity from the request context:

	identity := tokenauth.MustGetIdentity(r.Context())
	fmt.Fprintln(w, identity.Email, identity.Roles)

# Error Responses

DefaultErrorHandler answers with a JSON body {"message": ..., "code": ...}:

	400  token missing, malformed Authorization header, malformed token
	401  bad signature, expired, wrong audience, wrong issuer
	403  RequireRoles rejected the identity
	503  the IdP could not provide a signing key
	500  anything else

401 responses carry a WWW-Authenticate: Bearer challenge.

# Observability

WithLogger accepts any slog-shaped logger (including *slog.Logger);
NewZapLogger, NewLogrusLogger and NewZerologLogger adapt the common
structured loggers. WithMetrics records tokenauth_verifications_total and
tokenauth_verification_duration_seconds through NewPrometheusMetrics, and
WithTracer opens a "tokenauth.verify" span per check through
NewOpenTelemetryTracer.
*/
package tokenauth
