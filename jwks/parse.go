package jwks

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

var errUnusableKey = errors.New("unusable key")

// parseKeySetDocument parses a {"keys": [...]} document. Keys that cannot
// verify signatures (encryption keys, symmetric keys, keys without an id or
// with an unknown algorithm) are skipped.
func parseKeySetDocument(body []byte, defaultAlg jwa.SignatureAlgorithm, logger Logger) ([]*SigningKey, error) {
	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse JWKS: %w", ErrUpstreamUnavailable, err)
	}

	keys := make([]*SigningKey, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}

		kid, ok := key.KeyID()
		if !ok || kid == "" {
			if logger != nil {
				logger.Debug("skipping JWKS entry without key id", "index", i)
			}
			continue
		}

		sk, err := newSigningKey(kid, key, defaultAlg)
		if err != nil {
			if logger != nil {
				logger.Debug("skipping JWKS entry", "kid", kid, "reason", err)
			}
			continue
		}
		keys = append(keys, sk)
	}

	return keys, nil
}

// parsePublicKeyDocument parses the {"public_key": "..."} document served by
// a Keycloak realm endpoint. The value is the base64 body of a PEM encoded
// SubjectPublicKeyInfo; a complete PEM block is accepted too.
func parsePublicKeyDocument(body []byte, defaultAlg jwa.SignatureAlgorithm) ([]*SigningKey, error) {
	var doc struct {
		PublicKey string `json:"public_key"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse public key document: %w", ErrUpstreamUnavailable, err)
	}
	if doc.PublicKey == "" {
		return nil, nil
	}

	der, err := decodePublicKey(doc.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoUsableKey, err)
	}

	raw, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse public key: %w", ErrNoUsableKey, err)
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: could not import public key: %w", ErrNoUsableKey, err)
	}

	sk, err := newSigningKey("", key, defaultAlg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoUsableKey, err)
	}

	return []*SigningKey{sk}, nil
}

func decodePublicKey(value string) ([]byte, error) {
	if strings.Contains(value, "-----BEGIN") {
		block, _ := pem.Decode([]byte(value))
		if block == nil {
			return nil, errors.New("invalid PEM block")
		}
		return block.Bytes, nil
	}

	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(value), ""))
	if err != nil {
		return nil, fmt.Errorf("could not decode public key: %w", err)
	}
	return der, nil
}

// newSigningKey binds key to the algorithm it declares, falling back to
// defaultAlg for RSA keys that declare none.
func newSigningKey(kid string, key jwk.Key, defaultAlg jwa.SignatureAlgorithm) (*SigningKey, error) {
	if use, ok := key.KeyUsage(); ok && use != "sig" {
		return nil, fmt.Errorf("%w: key use is %q", errUnusableKey, use)
	}

	kty := key.KeyType().String()
	if kty == "oct" {
		return nil, fmt.Errorf("%w: symmetric keys are not accepted", errUnusableKey)
	}

	var alg jwa.SignatureAlgorithm
	if declared, ok := key.Algorithm(); ok {
		sa, ok := jwa.LookupSignatureAlgorithm(declared.String())
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a signature algorithm", errUnusableKey, declared.String())
		}
		alg = sa
	} else if kty == "RSA" {
		alg = defaultAlg
	} else {
		return nil, fmt.Errorf("%w: %s key declares no algorithm", errUnusableKey, kty)
	}

	if !algorithmMatchesKeyType(alg, kty) {
		return nil, fmt.Errorf("%w: algorithm %s cannot be used with %s key", errUnusableKey, alg.String(), kty)
	}

	public, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnusableKey, err)
	}

	return &SigningKey{id: kid, algorithm: alg, key: public}, nil
}

// algorithmMatchesKeyType reports whether alg is an asymmetric signature
// algorithm usable with a key of type kty.
func algorithmMatchesKeyType(alg jwa.SignatureAlgorithm, kty string) bool {
	name := alg.String()
	switch {
	case strings.HasPrefix(name, "RS"), strings.HasPrefix(name, "PS"):
		return kty == "RSA"
	case strings.HasPrefix(name, "ES"):
		return kty == "EC"
	case name == "EdDSA":
		return kty == "OKP"
	default:
		return false
	}
}
