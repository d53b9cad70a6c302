package verifier

import (
	"slices"
	"sort"
	"time"
)

// Identity is the verified view of a token. It is only built by Verify on
// success and must be treated as read-only.
type Identity struct {
	Email      string
	GivenName  string
	FamilyName string

	// Roles is the union of the realm, client and top-level role claims,
	// sorted and without duplicates. It is empty, never nil, when the token
	// carries no roles.
	Roles []string

	// Expiry is the raw "exp" claim in seconds since the Unix epoch.
	Expiry int64

	// Claims holds every claim of the payload as decoded from JSON.
	Claims map[string]any
}

// Subject returns the "sub" claim.
func (i *Identity) Subject() string { return i.stringClaim("sub") }

// PreferredUsername returns Keycloak's "preferred_username" claim.
func (i *Identity) PreferredUsername() string { return i.stringClaim("preferred_username") }

// ExpiresAt returns the expiry as a time.
func (i *Identity) ExpiresAt() time.Time { return time.Unix(i.Expiry, 0) }

// HasRole reports whether role is one of the identity's roles.
func (i *Identity) HasRole(role string) bool {
	_, found := slices.BinarySearch(i.Roles, role)
	return found
}

// HasAnyRole reports whether the identity holds at least one of roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// Claim returns the raw value of a claim.
func (i *Identity) Claim(name string) (any, bool) {
	v, ok := i.Claims[name]
	return v, ok
}

func (i *Identity) stringClaim(name string) string {
	s, _ := i.Claims[name].(string)
	return s
}

func newIdentity(claims map[string]any, expiry int64, clientID string) *Identity {
	return &Identity{
		Email:      stringValue(claims["email"]),
		GivenName:  stringValue(claims["given_name"]),
		FamilyName: stringValue(claims["family_name"]),
		Roles:      collectRoles(claims, clientID),
		Expiry:     expiry,
		Claims:     claims,
	}
}

// collectRoles gathers roles from the places Keycloak puts them:
// realm_access.roles, resource_access.<client>.roles and a flat "roles"
// claim added by a protocol mapper.
func collectRoles(claims map[string]any, clientID string) []string {
	seen := make(map[string]struct{})
	add := func(v any) {
		list, ok := v.([]any)
		if !ok {
			return
		}
		for _, item := range list {
			if role, ok := item.(string); ok && role != "" {
				seen[role] = struct{}{}
			}
		}
	}

	add(claims["roles"])
	if realm, ok := claims["realm_access"].(map[string]any); ok {
		add(realm["roles"])
	}
	if clientID != "" {
		if resources, ok := claims["resource_access"].(map[string]any); ok {
			if client, ok := resources[clientID].(map[string]any); ok {
				add(client["roles"])
			}
		}
	}

	roles := make([]string, 0, len(seen))
	for role := range seen {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
