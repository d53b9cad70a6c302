package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxDiscoverySize bounds the discovery document body.
const maxDiscoverySize = 1 << 20

// WellKnownEndpoints holds the parts of the OpenID discovery document the
// CLI reports.
type WellKnownEndpoints struct {
	Issuer                string `json:"issuer"`
	JWKSURI               string `json:"jwks_uri"`
	IntrospectionEndpoint string `json:"introspection_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// Discover fetches the realm's discovery document.
func Discover(ctx context.Context, client *http.Client, urls *URLs) (*WellKnownEndpoints, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urls.WellKnown(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well known endpoints: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", urls.WellKnown(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("well known endpoints request returned status %d", resp.StatusCode)
	}

	var endpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoverySize)).Decode(&endpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}
	if endpoints.JWKSURI == "" {
		return nil, fmt.Errorf("discovery document from %s has no jwks_uri", urls.WellKnown())
	}

	return &endpoints, nil
}
