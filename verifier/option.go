package verifier

import (
	"errors"
	"time"
)

// Option is how options for the Verifier are set up.
// Options return errors to enable validation during construction.
type Option func(*Verifier) error

// WithKeyProvider sets the source of signing keys.
// This is a required option.
func WithKeyProvider(provider KeyProvider) Option {
	return func(v *Verifier) error {
		if provider == nil {
			return errors.New("key provider cannot be nil")
		}
		v.provider = provider
		return nil
	}
}

// WithAudience sets the audience the "aud" claim must contain.
// Without it the audience is not checked.
func WithAudience(audience string) Option {
	return func(v *Verifier) error {
		if audience == "" {
			return errors.New("audience cannot be empty")
		}
		v.audience = audience
		return nil
	}
}

// WithIssuer sets the value the "iss" claim must equal.
// Without it the issuer is not checked.
func WithIssuer(issuer string) Option {
	return func(v *Verifier) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		v.issuer = issuer
		return nil
	}
}

// WithClientID sets the client whose resource_access roles are added to
// the identity's roles.
func WithClientID(clientID string) Option {
	return func(v *Verifier) error {
		if clientID == "" {
			return errors.New("client ID cannot be empty")
		}
		v.clientID = clientID
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to the exp and nbf
// claims. Defaults to 0.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Verifier) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}
