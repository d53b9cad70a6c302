package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrIntrospectionUnavailable is returned when the introspection endpoint
// could not give an answer.
var ErrIntrospectionUnavailable = errors.New("introspection unavailable")

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Introspector asks Keycloak whether a token is still active. Unlike local
// verification it notices revoked sessions, at the price of one request per
// call.
type Introspector struct {
	endpoint string
	clientID string
	client   *http.Client
	logger   Logger
}

// NewIntrospector returns an Introspector posting to endpoint on behalf of
// clientID. A nil client means http.DefaultClient; logger may be nil.
func NewIntrospector(endpoint, clientID string, client *http.Client, logger Logger) (*Introspector, error) {
	if endpoint == "" {
		return nil, errors.New("introspection endpoint is required")
	}
	if clientID == "" {
		return nil, errors.New("client id is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Introspector{endpoint: endpoint, clientID: clientID, client: client, logger: logger}, nil
}

// Introspect reports whether token is active. A 4xx answer counts as
// inactive; transport failures, 5xx answers and unreadable bodies return
// ErrIntrospectionUnavailable.
func (i *Introspector) Introspect(ctx context.Context, token string) (bool, error) {
	form := url.Values{
		"token":     {token},
		"client_id": {i.clientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %w", ErrIntrospectionUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: request failed: %w", ErrIntrospectionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("%w: request returned status %d", ErrIntrospectionUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if i.logger != nil {
			i.logger.Debug("introspection rejected", "status", resp.StatusCode)
		}
		return false, nil
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoverySize)).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: failed to decode response: %w", ErrIntrospectionUnavailable, err)
	}

	if i.logger != nil {
		i.logger.Debug("token introspected", "active", body.Active)
	}
	return body.Active, nil
}
