/*
Package keycloak builds Keycloak realm endpoint URLs and talks to the
endpoints that local token verification does not cover: OpenID discovery
and token introspection.

# URLs

	urls, err := keycloak.NewURLs("sso.example.com:8443", "bookstore", "https")
	urls.Certs()      // https://sso.example.com:8443/realms/bookstore/protocol/openid-connect/certs
	urls.Introspect() // https://sso.example.com:8443/realms/bookstore/protocol/openid-connect/token/introspect

The scheme defaults to http and a trailing slash on the host is dropped.

# Introspection

	in, _ := keycloak.NewIntrospector(urls.Introspect(), "bookstore-api", client, logger)
	active, err := in.Introspect(ctx, rawToken)
*/
package keycloak
