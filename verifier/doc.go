/*
Package verifier checks bearer tokens issued by an OIDC identity provider
and turns them into an Identity.

	provider, _ := jwks.NewProvider(jwks.WithKeysURL(certsURL))

	v, err := verifier.New(
	    verifier.WithKeyProvider(provider),
	    verifier.WithAudience("account"),
	    verifier.WithClientID("bookstore"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	identity, err := v.Verify(ctx, rawToken)

Verify decodes the token, asks the KeyProvider for the key named by the
"kid" header, verifies the signature with the algorithm bound to that key
(never the one the token asks for), then checks exp, nbf, aud and iss.

Failures are *VerifyError values. Compare them with errors.Is:

	switch {
	case errors.Is(err, verifier.ErrMalformedToken):
	case errors.Is(err, verifier.ErrKeyUnavailable):
	case errors.Is(err, verifier.ErrBadSignature):
	case errors.Is(err, verifier.ErrExpired):
	case errors.Is(err, verifier.ErrWrongAudience):
	case errors.Is(err, verifier.ErrWrongIssuer):
	}

A Verifier holds no per-request state and is safe for concurrent use.
*/
package verifier
