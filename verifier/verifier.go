package verifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/bookstore-api/tokenauth/jwks"
)

// KeyProvider resolves the signing key a token names in its "kid" header.
// *jwks.Provider implements it.
type KeyProvider interface {
	GetKey(ctx context.Context, kid string) (*jwks.SigningKey, error)
}

// Verifier checks bearer tokens against the keys of a KeyProvider.
type Verifier struct {
	provider         KeyProvider   // Required.
	audience         string        // Optional.
	issuer           string        // Optional.
	clientID         string        // Optional.
	allowedClockSkew time.Duration // Optional.

	now func() time.Time
}

// New sets up a new Verifier with the given options.
//
// Required options:
//   - WithKeyProvider: source of signing keys
//
// Optional options:
//   - WithAudience: expected "aud" value
//   - WithIssuer: expected "iss" value
//   - WithClientID: client whose resource_access roles are collected
//   - WithAllowedClockSkew: tolerance for exp and nbf (default 0)
func New(opts ...Option) (*Verifier, error) {
	v := &Verifier{now: time.Now}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.provider == nil {
		return nil, errors.New("key provider is required (use WithKeyProvider)")
	}

	return v, nil
}

type tokenHeader struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid"`
}

// Verify checks the token's signature with the key it names, then its
// expiry, audience and issuer, and returns the identity it carries.
// Every failure is a *VerifyError; use errors.Is with the sentinels of this
// package (or of package jwks for key failures) to tell them apart.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if err := checkTokenFormat(raw); err != nil {
		return nil, newVerifyError(ErrorCodeTokenMalformed, "token is malformed", err)
	}

	segments := strings.Split(raw, ".")

	var header tokenHeader
	if err := decodeSegment(segments[0], &header); err != nil {
		return nil, newVerifyError(ErrorCodeTokenMalformed, "could not decode token header", err)
	}

	var claims map[string]any
	if err := decodeSegment(segments[1], &claims); err != nil {
		return nil, newVerifyError(ErrorCodeTokenMalformed, "could not decode token payload", err)
	}
	if claims == nil {
		return nil, newVerifyError(ErrorCodeTokenMalformed, "token payload is not a JSON object", nil)
	}

	key, err := v.provider.GetKey(ctx, header.KeyID)
	if err != nil {
		return nil, newVerifyError(ErrorCodeKeyUnavailable, "no signing key for token", err)
	}

	// The key decides the algorithm. A header asking for anything else
	// (another family, "none", HMAC with the public key as secret) is a
	// forgery attempt.
	if header.Algorithm != key.Algorithm().String() {
		return nil, newVerifyError(
			ErrorCodeInvalidSignature,
			"signature verification failed",
			fmt.Errorf("key %q requires %s but token specified %q", key.ID(), key.Algorithm().String(), header.Algorithm),
		)
	}

	if _, err := jws.Verify([]byte(raw), jws.WithKey(key.Algorithm(), key.Key())); err != nil {
		return nil, newVerifyError(ErrorCodeInvalidSignature, "signature verification failed", err)
	}

	expiry, err := v.checkTimes(claims)
	if err != nil {
		return nil, err
	}

	if v.audience != "" && !audienceContains(claims["aud"], v.audience) {
		return nil, newVerifyError(
			ErrorCodeInvalidAudience,
			"token audience mismatch",
			fmt.Errorf("expected audience %q", v.audience),
		)
	}

	if v.issuer != "" {
		if iss, _ := claims["iss"].(string); iss != v.issuer {
			return nil, newVerifyError(
				ErrorCodeInvalidIssuer,
				"token issuer mismatch",
				fmt.Errorf("expected issuer %q but token specified %q", v.issuer, iss),
			)
		}
	}

	return newIdentity(claims, expiry, v.clientID), nil
}

func (v *Verifier) checkTimes(claims map[string]any) (int64, error) {
	now := v.now()

	exp, ok, err := numericDate(claims, "exp")
	if err != nil {
		return 0, newVerifyError(ErrorCodeTokenMalformed, "invalid exp claim", err)
	}
	if !ok {
		return 0, newVerifyError(ErrorCodeTokenMalformed, "token has no exp claim", nil)
	}
	if !now.Add(-v.allowedClockSkew).Before(time.Unix(exp, 0)) {
		return 0, newVerifyError(
			ErrorCodeTokenExpired,
			"token is expired",
			fmt.Errorf("expired at %s", time.Unix(exp, 0).UTC().Format(time.RFC3339)),
		)
	}

	nbf, ok, err := numericDate(claims, "nbf")
	if err != nil {
		return 0, newVerifyError(ErrorCodeTokenMalformed, "invalid nbf claim", err)
	}
	if ok && now.Add(v.allowedClockSkew).Before(time.Unix(nbf, 0)) {
		return 0, newVerifyError(
			ErrorCodeTokenExpired,
			"token is not valid yet",
			fmt.Errorf("valid from %s", time.Unix(nbf, 0).UTC().Format(time.RFC3339)),
		)
	}

	return exp, nil
}

// numericDate reads a JSON number claim as whole seconds.
func numericDate(claims map[string]any, name string) (int64, bool, error) {
	raw, ok := claims[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	f, ok := raw.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	return int64(f), true, nil
}

// audienceContains accepts both forms of "aud": a single string or an
// array of strings.
func audienceContains(aud any, want string) bool {
	switch v := aud.(type) {
	case string:
		return v == want
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func decodeSegment(segment string, dst any) error {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
