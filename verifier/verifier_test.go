package verifier

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookstore-api/tokenauth/jwks"
)

type fakeProvider struct {
	keys  map[string]*jwks.SigningKey
	err   error
	calls int
}

func (f *fakeProvider) GetKey(_ context.Context, kid string) (*jwks.SigningKey, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	key, ok := f.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", jwks.ErrKeyNotFound, kid)
	}
	return key, nil
}

func newRSAKey(t *testing.T, kid string) (*rsa.PrivateKey, *jwks.SigningKey) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	public, err := jwk.Import(&privateKey.PublicKey)
	require.NoError(t, err)

	key, err := jwks.NewSigningKey(kid, public, jwa.RS256())
	require.NoError(t, err)

	return privateKey, key
}

func signToken(t *testing.T, alg jwa.SignatureAlgorithm, privateKey any, kid string, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	headers := jws.NewHeaders()
	if kid != "" {
		require.NoError(t, headers.Set(jws.KeyIDKey, kid))
	}

	signed, err := jws.Sign(payload, jws.WithKey(alg, privateKey, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)

	return string(signed)
}

func unsignedToken(t *testing.T, header, claims map[string]any) string {
	t.Helper()

	h, err := json.Marshal(header)
	require.NoError(t, err)
	p, err := json.Marshal(claims)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(h) + "." + base64.RawURLEncoding.EncodeToString(p) + "."
}

func validClaims() map[string]any {
	return map[string]any{
		"sub":                "f1d2c3b4",
		"iss":                "https://sso.example.com/realms/books",
		"aud":                "account",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"email":              "reader@example.com",
		"given_name":         "Ada",
		"family_name":        "Lovelace",
		"preferred_username": "ada",
	}
}

func requireCode(t *testing.T, err error, code string, sentinel error) {
	t.Helper()

	require.Error(t, err)
	var verifyErr *VerifyError
	require.ErrorAs(t, err, &verifyErr)
	assert.Equal(t, code, verifyErr.Code)
	assert.ErrorIs(t, err, sentinel)
}

func Test_Verify(t *testing.T) {
	privateKey, signingKey := newRSAKey(t, "abc")
	provider := &fakeProvider{keys: map[string]*jwks.SigningKey{"abc": signingKey}}

	v, err := New(
		WithKeyProvider(provider),
		WithAudience("account"),
		WithIssuer("https://sso.example.com/realms/books"),
		WithClientID("bookstore"),
	)
	require.NoError(t, err)

	t.Run("It returns the identity carried by a valid token", func(t *testing.T) {
		claims := validClaims()
		claims["realm_access"] = map[string]any{"roles": []string{"reader", "offline_access"}}
		claims["resource_access"] = map[string]any{
			"bookstore": map[string]any{"roles": []string{"admin", "reader"}},
			"other":     map[string]any{"roles": []string{"ignored"}},
		}
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		identity, err := v.Verify(context.Background(), token)
		require.NoError(t, err)

		want := &Identity{
			Email:      "reader@example.com",
			GivenName:  "Ada",
			FamilyName: "Lovelace",
			Roles:      []string{"admin", "offline_access", "reader"},
			Expiry:     claims["exp"].(int64),
		}
		if diff := cmp.Diff(want, identity, cmpopts.IgnoreFields(Identity{}, "Claims")); diff != "" {
			t.Errorf("identity mismatch (-want +got):\n%s", diff)
		}

		assert.Equal(t, "f1d2c3b4", identity.Subject())
		assert.Equal(t, "ada", identity.PreferredUsername())
		assert.True(t, identity.HasRole("admin"))
		assert.False(t, identity.HasRole("ignored"))
		assert.Equal(t, time.Unix(want.Expiry, 0), identity.ExpiresAt())

		iss, ok := identity.Claim("iss")
		require.True(t, ok)
		assert.Equal(t, "https://sso.example.com/realms/books", iss)
	})

	t.Run("It returns an empty role set when the token has no roles", func(t *testing.T) {
		token := signToken(t, jwa.RS256(), privateKey, "abc", validClaims())

		identity, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.NotNil(t, identity.Roles)
		assert.Empty(t, identity.Roles)
	})

	t.Run("It accepts an audience array containing the expected audience", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = []string{"realm-management", "account"}
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
	})

	t.Run("It rejects a token with a tampered signature", func(t *testing.T) {
		token := signToken(t, jwa.RS256(), privateKey, "abc", validClaims())

		parts := strings.Split(token, ".")
		signature, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)
		signature[0] ^= 0x01
		parts[2] = base64.RawURLEncoding.EncodeToString(signature)

		_, err = v.Verify(context.Background(), strings.Join(parts, "."))
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})

	t.Run("It rejects a token with a tampered payload", func(t *testing.T) {
		token := signToken(t, jwa.RS256(), privateKey, "abc", validClaims())

		claims := validClaims()
		claims["realm_access"] = map[string]any{"roles": []string{"admin"}}
		forged, err := json.Marshal(claims)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		parts[1] = base64.RawURLEncoding.EncodeToString(forged)

		_, err = v.Verify(context.Background(), strings.Join(parts, "."))
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})

	t.Run("It rejects a token signed by a key it does not trust", func(t *testing.T) {
		otherKey, _ := newRSAKey(t, "abc")
		token := signToken(t, jwa.RS256(), otherKey, "abc", validClaims())

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})

	t.Run("It rejects an expired token even when the signature is valid", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeTokenExpired, ErrExpired)
	})

	t.Run("It rejects a token that is not valid yet", func(t *testing.T) {
		claims := validClaims()
		claims["nbf"] = time.Now().Add(10 * time.Minute).Unix()
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeTokenExpired, ErrExpired)
	})

	t.Run("It rejects a token without exp as malformed", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "exp")
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeTokenMalformed, ErrMalformedToken)
	})

	t.Run("It rejects a token with a non-numeric exp as malformed", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = "tomorrow"
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeTokenMalformed, ErrMalformedToken)
	})

	t.Run("It rejects a token issued for another audience", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "billing"
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidAudience, ErrWrongAudience)
	})

	t.Run("It rejects a token without audience", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "aud")
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidAudience, ErrWrongAudience)
	})

	t.Run("It rejects a token from another issuer", func(t *testing.T) {
		claims := validClaims()
		claims["iss"] = "https://evil.example.com/realms/books"
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidIssuer, ErrWrongIssuer)
	})

	t.Run("It reports an unknown key id as key unavailable", func(t *testing.T) {
		token := signToken(t, jwa.RS256(), privateKey, "xyz", validClaims())

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeKeyUnavailable, ErrKeyUnavailable)
		assert.ErrorIs(t, err, jwks.ErrKeyNotFound)
	})

	t.Run("It keeps the provider error reachable", func(t *testing.T) {
		failing, err := New(WithKeyProvider(&fakeProvider{
			err: fmt.Errorf("%w: connection refused", jwks.ErrUpstreamUnavailable),
		}))
		require.NoError(t, err)

		token := signToken(t, jwa.RS256(), privateKey, "abc", validClaims())

		_, err = failing.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeKeyUnavailable, ErrKeyUnavailable)
		assert.ErrorIs(t, err, jwks.ErrUpstreamUnavailable)
	})

	t.Run("It skips audience and issuer checks when not configured", func(t *testing.T) {
		lenient, err := New(WithKeyProvider(provider))
		require.NoError(t, err)

		claims := validClaims()
		claims["aud"] = "billing"
		claims["iss"] = "someone-else"
		token := signToken(t, jwa.RS256(), privateKey, "abc", claims)

		_, err = lenient.Verify(context.Background(), token)
		require.NoError(t, err)
	})
}

func Test_VerifyAlgorithmConfusion(t *testing.T) {
	privateKey, signingKey := newRSAKey(t, "abc")
	provider := &fakeProvider{keys: map[string]*jwks.SigningKey{"abc": signingKey}}

	v, err := New(WithKeyProvider(provider))
	require.NoError(t, err)

	t.Run("It rejects alg none", func(t *testing.T) {
		token := unsignedToken(t, map[string]any{"alg": "none", "kid": "abc"}, validClaims())

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})

	t.Run("It rejects HMAC signed with the public key as secret", func(t *testing.T) {
		publicJSON, err := json.Marshal(signingKey.Key())
		require.NoError(t, err)
		token := signToken(t, jwa.HS256(), publicJSON, "abc", validClaims())

		_, err = v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})

	t.Run("It rejects an RSA signature under a different RSA algorithm", func(t *testing.T) {
		token := signToken(t, jwa.RS512(), privateKey, "abc", validClaims())

		_, err := v.Verify(context.Background(), token)
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})

	t.Run("It accepts EC tokens for EC keys", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		public, err := jwk.Import(&ecKey.PublicKey)
		require.NoError(t, err)
		require.NoError(t, public.Set(jwk.AlgorithmKey, jwa.ES256()))
		key, err := jwks.NewSigningKey("ec", public, jwa.RS256())
		require.NoError(t, err)

		ecVerifier, err := New(WithKeyProvider(&fakeProvider{keys: map[string]*jwks.SigningKey{"ec": key}}))
		require.NoError(t, err)

		_, err = ecVerifier.Verify(context.Background(), signToken(t, jwa.ES256(), ecKey, "ec", validClaims()))
		require.NoError(t, err)

		_, err = ecVerifier.Verify(context.Background(), signToken(t, jwa.RS256(), privateKey, "ec", validClaims()))
		requireCode(t, err, ErrorCodeInvalidSignature, ErrBadSignature)
	})
}

func Test_VerifyMalformed(t *testing.T) {
	provider := &fakeProvider{}
	v, err := New(WithKeyProvider(provider))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "one segment", token: "abc"},
		{name: "two segments", token: "abc.def"},
		{name: "too many segments", token: "a.b.c.d.e.f.g"},
		{name: "header not base64", token: "!!!.e30.sig"},
		{name: "header not JSON", token: base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".e30.sig"},
		{name: "payload not an object", token: "eyJhbGciOiJSUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("[1,2]")) + ".sig"},
		{name: "payload null", token: "eyJhbGciOiJSUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("null")) + ".sig"},
		{name: "oversized", token: strings.Repeat("a", maxTokenSize) + ".b.c"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token)
			requireCode(t, err, ErrorCodeTokenMalformed, ErrMalformedToken)
		})
	}

	assert.Equal(t, 0, provider.calls, "malformed tokens must not reach the key provider")
}

func Test_VerifyWithJWKSProvider(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	public, err := jwk.Import(&privateKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, public.Set(jwk.KeyIDKey, "abc"))
	require.NoError(t, public.Set(jwk.AlgorithmKey, jwa.RS256()))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))
	body, err := json.Marshal(set)
	require.NoError(t, err)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	certsURL, err := url.Parse(server.URL + "/realms/books/protocol/openid-connect/certs")
	require.NoError(t, err)

	provider, err := jwks.NewProvider(jwks.WithKeysURL(certsURL))
	require.NoError(t, err)

	v, err := New(WithKeyProvider(provider), WithAudience("account"))
	require.NoError(t, err)

	t.Run("A token for kid abc verifies", func(t *testing.T) {
		claims := map[string]any{
			"aud":   "account",
			"exp":   time.Now().Add(time.Hour).Unix(),
			"email": "reader@example.com",
		}

		identity, err := v.Verify(context.Background(), signToken(t, jwa.RS256(), privateKey, "abc", claims))
		require.NoError(t, err)
		assert.Equal(t, "reader@example.com", identity.Email)
		assert.Equal(t, []string{}, identity.Roles)
	})

	t.Run("A token for unknown kid xyz fails after one refresh", func(t *testing.T) {
		before := requests.Load()

		_, err := v.Verify(context.Background(), signToken(t, jwa.RS256(), privateKey, "xyz", validClaims()))
		requireCode(t, err, ErrorCodeKeyUnavailable, ErrKeyUnavailable)
		assert.True(t, errors.Is(err, jwks.ErrKeyNotFound))
		assert.Equal(t, before+1, requests.Load())
	})
}

func Test_New(t *testing.T) {
	_, signingKey := newRSAKey(t, "abc")
	provider := &fakeProvider{keys: map[string]*jwks.SigningKey{"abc": signingKey}}

	t.Run("It requires a key provider", func(t *testing.T) {
		_, err := New(WithAudience("account"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key provider is required")
	})

	t.Run("It rejects invalid options", func(t *testing.T) {
		testCases := []struct {
			name string
			opt  Option
		}{
			{name: "nil provider", opt: WithKeyProvider(nil)},
			{name: "empty audience", opt: WithAudience("")},
			{name: "empty issuer", opt: WithIssuer("")},
			{name: "empty client id", opt: WithClientID("")},
			{name: "negative skew", opt: WithAllowedClockSkew(-time.Second)},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := New(WithKeyProvider(provider), tc.opt)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid option")
			})
		}
	})

	t.Run("It applies the allowed clock skew", func(t *testing.T) {
		v, err := New(WithKeyProvider(provider), WithAllowedClockSkew(time.Minute))
		require.NoError(t, err)

		now := time.Unix(1_700_000_000, 0)
		v.now = func() time.Time { return now }

		_, err = v.checkTimes(map[string]any{"exp": float64(now.Add(-30 * time.Second).Unix())})
		require.NoError(t, err)

		_, err = v.checkTimes(map[string]any{"exp": float64(now.Add(-2 * time.Minute).Unix())})
		requireCode(t, err, ErrorCodeTokenExpired, ErrExpired)

		_, err = v.checkTimes(map[string]any{
			"exp": float64(now.Add(time.Hour).Unix()),
			"nbf": float64(now.Add(30 * time.Second).Unix()),
		})
		require.NoError(t, err)
	})
}
