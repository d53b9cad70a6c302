package jwks

import "errors"

// Sentinel errors returned by Provider. They are always wrapped with
// additional context, so compare with errors.Is.
var (
	// ErrUpstreamUnavailable is returned when the key endpoint could not be
	// reached, answered with a non-2xx status, timed out, or returned a body
	// that is not a key document.
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")

	// ErrNoUsableKey is returned when the key document parsed but held no
	// key with usable algorithm and material.
	ErrNoUsableKey = errors.New("no usable signing key")

	// ErrKeyNotFound is returned when a key id is still unknown after the
	// one refresh GetKey is allowed to perform.
	ErrKeyNotFound = errors.New("signing key not found")
)
