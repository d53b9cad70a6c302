package jwks

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
)

// ProviderOption is how options for the Provider are set up.
type ProviderOption func(*Provider) error

// WithKeysURL sets the URL of the IdP key endpoint.
// This is a required option.
//
// For Keycloak in ModeKeySet this is the realm certs endpoint
// (.../realms/<realm>/protocol/openid-connect/certs); in ModePublicKey it is
// the realm URL itself.
func WithKeysURL(keysURL *url.URL) ProviderOption {
	return func(p *Provider) error {
		if keysURL == nil {
			return errors.New("keys URL cannot be nil")
		}
		if keysURL.Scheme != "http" && keysURL.Scheme != "https" {
			return fmt.Errorf("keys URL scheme must be http or https, got %q", keysURL.Scheme)
		}
		p.keysURL = keysURL
		return nil
	}
}

// WithMode sets the shape of the key document. Defaults to ModeKeySet.
func WithMode(mode Mode) ProviderOption {
	return func(p *Provider) error {
		if mode != ModeKeySet && mode != ModePublicKey {
			return fmt.Errorf("unsupported mode: %s", mode)
		}
		p.mode = mode
		return nil
	}
}

// WithCustomClient sets a custom HTTP client for the Provider.
// Fetches are bounded by WithTimeout regardless of the client's own timeout.
func WithCustomClient(c *http.Client) ProviderOption {
	return func(p *Provider) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		p.client = c
		return nil
	}
}

// WithTimeout bounds a single key document fetch. Defaults to 10 seconds.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		p.timeout = timeout
		return nil
	}
}

// WithDefaultAlgorithm sets the algorithm bound to RSA keys whose document
// declares none, and to the key in ModePublicKey. Defaults to RS256.
func WithDefaultAlgorithm(alg jwa.SignatureAlgorithm) ProviderOption {
	return func(p *Provider) error {
		if !algorithmMatchesKeyType(alg, "RSA") {
			return fmt.Errorf("default algorithm must be an RSA signature algorithm, got %s", alg.String())
		}
		p.defaultAlgorithm = alg
		return nil
	}
}

// WithMinRefreshInterval makes GetKey fail fast with ErrKeyNotFound, without
// any network I/O, when the last successful refresh happened less than
// interval ago. This caps the load tokens with made-up key ids can put on
// the IdP. Zero (the default) disables the limit.
func WithMinRefreshInterval(interval time.Duration) ProviderOption {
	return func(p *Provider) error {
		if interval < 0 {
			return errors.New("min refresh interval cannot be negative")
		}
		p.minRefreshInterval = interval
		return nil
	}
}

// WithLogger sets an optional logger for the Provider.
func WithLogger(logger Logger) ProviderOption {
	return func(p *Provider) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}
