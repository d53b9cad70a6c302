/*
Package jwks resolves and caches the signing keys of an OIDC identity
provider such as Keycloak.

# Overview

A Provider fetches the IdP's key document, keeps the parsed keys in an
immutable KeySet and hands out the key a token names in its "kid" header.
Two document shapes are supported:

  - ModeKeySet (default): a JSON Web Key Set, {"keys": [...]}, as served by
    the realm certs endpoint. IdPs rotate keys by publishing several entries
    at once, so this is the mode to use in production.
  - ModePublicKey: {"public_key": "<base64 DER>"}, as served by the Keycloak
    realm endpoint. The provider holds exactly one key and ignores kid.

# Basic Usage

	certsURL, _ := url.Parse("https://sso.example.com/realms/books/protocol/openid-connect/certs")

	provider, err := jwks.NewProvider(
	    jwks.WithKeysURL(certsURL),
	    jwks.WithTimeout(5*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := provider.GetKey(ctx, "kid-from-token-header")

# Cache Behavior

  - Nothing is fetched at construction; the first GetKey loads the set.
  - Keys never expire. The set is replaced only when a kid is unknown
    (GetKey refreshes once, then looks again) or Refresh is called.
  - A refresh builds a complete new KeySet and publishes it with a single
    atomic pointer swap, so concurrent readers never see a partial set.
  - Concurrent refreshes collapse into one in-flight fetch.
  - A failed refresh keeps the previous set.

# Key Selection

Only keys able to verify signatures are kept: "use" (if present) must be
"sig", symmetric keys are dropped, and the algorithm comes from the key's
own "alg" member (RSA keys without one get the default, RS256). The
algorithm stored with a SigningKey is the only algorithm a token signed by
that key may use.

# Error Handling

	key, err := provider.GetKey(ctx, kid)
	switch {
	case errors.Is(err, jwks.ErrUpstreamUnavailable):
	    // network failure, timeout, non-2xx, malformed document
	case errors.Is(err, jwks.ErrNoUsableKey):
	    // document parsed but held nothing usable
	case errors.Is(err, jwks.ErrKeyNotFound):
	    // kid unknown even after one refresh
	}

# Thread Safety

A Provider is safe for concurrent use and should be constructed once per
process and shared.
*/
package jwks
