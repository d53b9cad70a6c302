package keycloak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewURLs(t *testing.T) {
	t.Run("builds every realm endpoint", func(t *testing.T) {
		urls, err := NewURLs("localhost:8080/", "bookstore", "")
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080/realms/bookstore", urls.Realm())
		assert.Equal(t, "http://localhost:8080/realms/bookstore", urls.Issuer())
		assert.Equal(t, "http://localhost:8080/realms/bookstore/protocol/openid-connect/certs", urls.Certs())
		assert.Equal(t, "http://localhost:8080/realms/bookstore/protocol/openid-connect/token/introspect", urls.Introspect())
		assert.Equal(t, "http://localhost:8080/realms/bookstore/protocol/openid-connect/userinfo", urls.UserInfo())
		assert.Equal(t, "http://localhost:8080/realms/bookstore/protocol/openid-connect/logout", urls.Logout())
		assert.Equal(t, "http://localhost:8080/realms/bookstore/.well-known/openid-configuration", urls.WellKnown())
	})

	t.Run("keeps a base path and the configured scheme", func(t *testing.T) {
		urls, err := NewURLs("sso.example.com/auth", "books", "https")
		require.NoError(t, err)
		assert.Equal(t, "https://sso.example.com/auth/realms/books/protocol/openid-connect/certs", urls.Certs())
	})

	t.Run("key URL follows the key mode", func(t *testing.T) {
		urls, err := NewURLs("localhost:8080", "bookstore", "http")
		require.NoError(t, err)

		certs, err := urls.KeysURL(false)
		require.NoError(t, err)
		assert.Equal(t, "/realms/bookstore/protocol/openid-connect/certs", certs.Path)

		realm, err := urls.KeysURL(true)
		require.NoError(t, err)
		assert.Equal(t, "/realms/bookstore", realm.Path)
	})

	t.Run("rejects incomplete settings", func(t *testing.T) {
		_, err := NewURLs("", "bookstore", "")
		assert.ErrorContains(t, err, "host is required")

		_, err = NewURLs("localhost", "", "")
		assert.ErrorContains(t, err, "realm is required")

		_, err = NewURLs("http://localhost", "bookstore", "")
		assert.ErrorContains(t, err, "must not include a scheme")

		_, err = NewURLs("localhost", "bookstore", "ftp")
		assert.ErrorContains(t, err, "unsupported URL scheme")
	})
}
