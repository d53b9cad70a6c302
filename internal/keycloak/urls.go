package keycloak

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultScheme is used when no URL scheme is configured.
const DefaultScheme = "http"

// URLs builds the endpoint URLs of one Keycloak realm.
type URLs struct {
	scheme string
	host   string
	realm  string
}

// NewURLs returns the URL builder for realm on the server at host. host is
// host[:port][/path] without scheme; a trailing slash is ignored. An empty
// scheme means DefaultScheme.
func NewURLs(host, realm, scheme string) (*URLs, error) {
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil, errors.New("keycloak host is required")
	}
	if strings.Contains(host, "://") {
		return nil, fmt.Errorf("keycloak host %q must not include a scheme", host)
	}
	if realm == "" {
		return nil, errors.New("keycloak realm is required")
	}
	if scheme == "" {
		scheme = DefaultScheme
	}
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q (want http or https)", scheme)
	}

	return &URLs{scheme: scheme, host: host, realm: realm}, nil
}

func (u *URLs) build(segments ...string) string {
	parts := append([]string{u.scheme + "://" + u.host, "realms", url.PathEscape(u.realm)}, segments...)
	return strings.Join(parts, "/")
}

// Realm is the realm URL. Keycloak serves the realm public key here.
func (u *URLs) Realm() string { return u.build() }

// Certs is the JWKS endpoint of the realm.
func (u *URLs) Certs() string { return u.build("protocol", "openid-connect", "certs") }

// Introspect is the token introspection endpoint.
func (u *URLs) Introspect() string {
	return u.build("protocol", "openid-connect", "token", "introspect")
}

// UserInfo is the userinfo endpoint.
func (u *URLs) UserInfo() string { return u.build("protocol", "openid-connect", "userinfo") }

// Logout is the end-session endpoint.
func (u *URLs) Logout() string { return u.build("protocol", "openid-connect", "logout") }

// WellKnown is the OpenID discovery document of the realm.
func (u *URLs) WellKnown() string { return u.build(".well-known", "openid-configuration") }

// Issuer is the value Keycloak puts in the iss claim, which is the realm URL
// as seen by clients using the same host.
func (u *URLs) Issuer() string { return u.Realm() }

// KeysURL returns the key endpoint: the realm URL when publicKeyMode is set,
// the certs endpoint otherwise.
func (u *URLs) KeysURL(publicKeyMode bool) (*url.URL, error) {
	if publicKeyMode {
		return url.Parse(u.Realm())
	}
	return url.Parse(u.Certs())
}
