package jwks

import (
	"errors"
	"sort"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// SigningKey is one public key published by the IdP, bound to the
// signature algorithm declared by the key document.
type SigningKey struct {
	id        string
	algorithm jwa.SignatureAlgorithm
	key       jwk.Key
}

// NewSigningKey builds a SigningKey from key material obtained outside a
// Provider. The algorithm is taken from the key's "alg" member; RSA keys
// without one are bound to defaultAlg. Keys that cannot verify signatures
// are rejected.
func NewSigningKey(kid string, key jwk.Key, defaultAlg jwa.SignatureAlgorithm) (*SigningKey, error) {
	if key == nil {
		return nil, errors.New("key cannot be nil")
	}
	return newSigningKey(kid, key, defaultAlg)
}

// ID returns the key identifier. It is empty in single-key mode.
func (k *SigningKey) ID() string { return k.id }

// Algorithm returns the algorithm tokens signed with this key must use.
func (k *SigningKey) Algorithm() jwa.SignatureAlgorithm { return k.algorithm }

// Key returns the public key material.
func (k *SigningKey) Key() jwk.Key { return k.key }

// KeySet maps key identifiers to signing keys.
// A KeySet is never modified after construction; refreshing a Provider
// builds a new KeySet and swaps it in.
type KeySet struct {
	keys map[string]*SigningKey
}

func newKeySet(keys []*SigningKey) *KeySet {
	m := make(map[string]*SigningKey, len(keys))
	for _, k := range keys {
		m[k.id] = k
	}
	return &KeySet{keys: m}
}

var emptyKeySet = &KeySet{keys: map[string]*SigningKey{}}

// Lookup returns the key with the given id.
func (s *KeySet) Lookup(kid string) (*SigningKey, bool) {
	k, ok := s.keys[kid]
	return k, ok
}

// Len returns the number of keys in the set.
func (s *KeySet) Len() int { return len(s.keys) }

// IDs returns the key identifiers in sorted order.
func (s *KeySet) IDs() []string {
	ids := make([]string, 0, len(s.keys))
	for id := range s.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// only returns the sole key of a single-key set.
func (s *KeySet) only() (*SigningKey, bool) {
	if len(s.keys) != 1 {
		return nil, false
	}
	for _, k := range s.keys {
		return k, true
	}
	return nil, false
}
