package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"KEYCLOAK_HOST", "KEYCLOAK_REALM", "CLIENT_ID", "KEYCLOAK_URI_SCHEME",
	"KEYCLOAK_AUDIENCE", "KEYCLOAK_ISSUER", "KEYCLOAK_KEY_MODE",
	"KEYCLOAK_HTTP_TIMEOUT", "KEYCLOAK_MIN_REFRESH_INTERVAL", "KEYCLOAK_CLOCK_SKEW",
	"LISTEN_ADDR", "SHUTDOWN_TIMEOUT", "LOG_LEVEL",
}

// clearEnv empties every managed variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("KEYCLOAK_HOST", "localhost:8080")
	t.Setenv("KEYCLOAK_REALM", "bookstore")
	t.Setenv("CLIENT_ID", "bookstore-api")
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)

		cfg, err := Load(missingFile(t))
		require.NoError(t, err)

		assert.Equal(t, KeycloakConfig{
			Host:        "localhost:8080",
			Realm:       "bookstore",
			ClientID:    "bookstore-api",
			URIScheme:   "http",
			Audience:    "account",
			KeyMode:     "jwks",
			HTTPTimeout: 10 * time.Second,
		}, cfg.Keycloak)
		assert.Equal(t, ":8080", cfg.Server.ListenAddr)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("reads overrides", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("KEYCLOAK_URI_SCHEME", "https")
		t.Setenv("KEYCLOAK_AUDIENCE", "bookstore-api")
		t.Setenv("KEYCLOAK_ISSUER", "https://localhost:8080/realms/bookstore")
		t.Setenv("KEYCLOAK_KEY_MODE", "public_key")
		t.Setenv("KEYCLOAK_HTTP_TIMEOUT", "3s")
		t.Setenv("KEYCLOAK_MIN_REFRESH_INTERVAL", "30s")
		t.Setenv("KEYCLOAK_CLOCK_SKEW", "5s")
		t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
		t.Setenv("LOG_LEVEL", "DEBUG")

		cfg, err := Load(missingFile(t))
		require.NoError(t, err)

		assert.Equal(t, "https", cfg.Keycloak.URIScheme)
		assert.Equal(t, "bookstore-api", cfg.Keycloak.Audience)
		assert.Equal(t, "https://localhost:8080/realms/bookstore", cfg.Keycloak.Issuer)
		assert.Equal(t, "public_key", cfg.Keycloak.KeyMode)
		assert.Equal(t, 3*time.Second, cfg.Keycloak.HTTPTimeout)
		assert.Equal(t, 30*time.Second, cfg.Keycloak.MinRefreshInterval)
		assert.Equal(t, 5*time.Second, cfg.Keycloak.ClockSkew)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("reports every missing required variable", func(t *testing.T) {
		clearEnv(t)

		_, err := Load(missingFile(t))
		require.Error(t, err)
		assert.ErrorContains(t, err, "KEYCLOAK_HOST is required")
		assert.ErrorContains(t, err, "KEYCLOAK_REALM is required")
		assert.ErrorContains(t, err, "CLIENT_ID is required")
	})

	t.Run("rejects unparsable durations", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("KEYCLOAK_HTTP_TIMEOUT", "ten seconds")

		_, err := Load(missingFile(t))
		assert.ErrorContains(t, err, "KEYCLOAK_HTTP_TIMEOUT")
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		for key, value := range map[string]string{
			"KEYCLOAK_URI_SCHEME":           "ftp",
			"KEYCLOAK_HTTP_TIMEOUT":         "0s",
			"KEYCLOAK_MIN_REFRESH_INTERVAL": "-1s",
			"KEYCLOAK_CLOCK_SKEW":           "-1s",
			"LOG_LEVEL":                     "verbose",
		} {
			clearEnv(t)
			setRequired(t)
			t.Setenv(key, value)

			_, err := Load(missingFile(t))
			assert.ErrorContains(t, err, key, key)
		}
	})

	t.Run("reads a .env file without overriding the environment", func(t *testing.T) {
		// godotenv skips variables that exist even when empty.
		clearEnv(t)
		for _, k := range managedKeys {
			require.NoError(t, os.Unsetenv(k))
		}
		t.Setenv("KEYCLOAK_REALM", "from-env")

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(
			"KEYCLOAK_HOST=kc.internal:8443\nKEYCLOAK_REALM=from-file\nCLIENT_ID=bookstore-api\n",
		), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "kc.internal:8443", cfg.Keycloak.Host)
		assert.Equal(t, "from-env", cfg.Keycloak.Realm)
		assert.Equal(t, "bookstore-api", cfg.Keycloak.ClientID)
	})
}
