package jwks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout = 10 * time.Second

	// maxDocumentSize bounds the key document body. Real documents are a few KB.
	maxDocumentSize = 1 << 20

	refreshKey = "refresh"
)

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Mode selects the shape of the key document served by the IdP.
type Mode int

const (
	// ModeKeySet expects a JSON Web Key Set: {"keys": [...]}.
	ModeKeySet Mode = iota
	// ModePublicKey expects a single key: {"public_key": "<base64 DER>"}.
	ModePublicKey
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeKeySet:
		return "jwks"
	case ModePublicKey:
		return "public_key"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as accepted in configuration.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "jwks", "keys":
		return ModeKeySet, nil
	case "public_key", "public-key":
		return ModePublicKey, nil
	default:
		return 0, fmt.Errorf("unknown key mode %q (want jwks or public_key)", s)
	}
}

// Provider resolves the IdP's signing keys and caches them.
//
// The cached KeySet is published through an atomic pointer: readers always
// see either the previous or the next set in full. Refreshes are triggered
// only by a key id miss (or an explicit Refresh) and concurrent refreshes
// share a single network fetch.
//
// A Provider is meant to be built once at startup and shared by every
// verification.
type Provider struct {
	keysURL            *url.URL
	mode               Mode
	client             *http.Client
	timeout            time.Duration
	defaultAlgorithm   jwa.SignatureAlgorithm
	minRefreshInterval time.Duration
	logger             Logger

	current     atomic.Pointer[KeySet]
	lastRefresh atomic.Int64
	group       singleflight.Group
}

// NewProvider builds and returns a new *Provider.
// Required options:
//   - WithKeysURL: URL of the IdP key endpoint
//
// Optional options:
//   - WithMode: key document shape (default ModeKeySet)
//   - WithCustomClient: custom HTTP client
//   - WithTimeout: upper bound for one fetch (default 10s)
//   - WithDefaultAlgorithm: algorithm for RSA keys that declare none (default RS256)
//   - WithMinRefreshInterval: suppress refreshes right after a successful one
//   - WithLogger: optional logger
//
// Example:
//
//	provider, err := jwks.NewProvider(
//	    jwks.WithKeysURL(certsURL),
//	    jwks.WithTimeout(5*time.Second),
//	)
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		mode:             ModeKeySet,
		client:           &http.Client{},
		timeout:          defaultTimeout,
		defaultAlgorithm: jwa.RS256(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if p.keysURL == nil {
		return nil, fmt.Errorf("keys URL is required (use WithKeysURL)")
	}

	return p, nil
}

// Mode returns the key document shape the provider expects.
func (p *Provider) Mode() Mode { return p.mode }

// Keys returns the currently cached KeySet. Before the first successful
// refresh it is empty.
func (p *Provider) Keys() *KeySet {
	if set := p.current.Load(); set != nil {
		return set
	}
	return emptyKeySet
}

// GetKey returns the cached key for kid. In ModePublicKey kid is ignored and
// the one cached key is returned.
//
// When the key is not cached GetKey performs exactly one refresh and looks
// again. A refresh failure is returned as is (ErrUpstreamUnavailable or
// ErrNoUsableKey); a key that is still missing afterwards yields
// ErrKeyNotFound.
func (p *Provider) GetKey(ctx context.Context, kid string) (*SigningKey, error) {
	if key, ok := p.lookup(p.Keys(), kid); ok {
		return key, nil
	}

	if p.refreshSuppressed() {
		if p.logger != nil {
			p.logger.Debug("key not cached and refresh suppressed", "kid", kid)
		}
		return nil, fmt.Errorf("%w: kid %q (refreshed less than %s ago)", ErrKeyNotFound, kid, p.minRefreshInterval)
	}

	if p.logger != nil {
		p.logger.Debug("key not cached, refreshing key set", "kid", kid)
	}

	set, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	if key, ok := p.lookup(set, kid); ok {
		return key, nil
	}

	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (p *Provider) lookup(set *KeySet, kid string) (*SigningKey, bool) {
	if p.mode == ModePublicKey {
		return set.only()
	}
	return set.Lookup(kid)
}

func (p *Provider) refreshSuppressed() bool {
	if p.minRefreshInterval <= 0 {
		return false
	}
	last := p.lastRefresh.Load()
	if last == 0 {
		return false
	}
	return time.Since(time.Unix(0, last)) < p.minRefreshInterval
}

// Refresh fetches the key document and publishes the resulting KeySet.
// Callers arriving while a refresh is in flight wait for it instead of
// starting their own. The previous KeySet stays in place when the fetch
// fails.
func (p *Provider) Refresh(ctx context.Context) (*KeySet, error) {
	ch := p.group.DoChan(refreshKey, func() (any, error) {
		// The fetch is shared, so it must not die with the first caller's
		// context. FetchKeys bounds it with the provider timeout.
		set, err := p.FetchKeys(context.WithoutCancel(ctx))
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("key set refresh failed", "url", p.keysURL.String(), "error", err)
			}
			return nil, err
		}

		p.current.Store(set)
		p.lastRefresh.Store(time.Now().UnixNano())

		if p.logger != nil {
			p.logger.Info("key set refreshed", "url", p.keysURL.String(), "keys", set.Len())
		}
		return set, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeySet), nil
	}
}

// FetchKeys performs one GET against the key endpoint and parses the
// response into a new KeySet. It does not touch the cache.
func (p *Provider) FetchKeys(ctx context.Context) (*KeySet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.keysURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: request returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrUpstreamUnavailable, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: key document exceeds %d bytes", ErrUpstreamUnavailable, maxDocumentSize)
	}

	var keys []*SigningKey
	switch p.mode {
	case ModePublicKey:
		keys, err = parsePublicKeyDocument(body, p.defaultAlgorithm)
	default:
		keys, err = parseKeySetDocument(body, p.defaultAlgorithm, p.logger)
	}
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s document from %s holds no signing key", ErrNoUsableKey, p.mode, p.keysURL.String())
	}

	return newKeySet(keys), nil
}
