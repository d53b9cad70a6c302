// Package config loads the bookstore-auth settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI needs to reach the IdP and serve requests.
type Config struct {
	Keycloak KeycloakConfig
	Server   ServerConfig
	LogLevel string
}

// KeycloakConfig describes the realm tokens are issued by.
type KeycloakConfig struct {
	Host               string
	Realm              string
	ClientID           string
	URIScheme          string
	Audience           string
	Issuer             string
	KeyMode            string
	HTTPTimeout        time.Duration
	MinRefreshInterval time.Duration
	ClockSkew          time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
}

// Load reads the configuration. Values already present in the environment
// win over the ones in envFiles; missing files are ignored. With no envFiles
// ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not load %s: %w", f, err)
		}
	}

	l := &loader{}
	cfg := &Config{
		Keycloak: KeycloakConfig{
			Host:               l.required("KEYCLOAK_HOST"),
			Realm:              l.required("KEYCLOAK_REALM"),
			ClientID:           l.required("CLIENT_ID"),
			URIScheme:          l.string("KEYCLOAK_URI_SCHEME", "http"),
			Audience:           l.string("KEYCLOAK_AUDIENCE", "account"),
			Issuer:             l.string("KEYCLOAK_ISSUER", ""),
			KeyMode:            l.string("KEYCLOAK_KEY_MODE", "jwks"),
			HTTPTimeout:        l.duration("KEYCLOAK_HTTP_TIMEOUT", 10*time.Second),
			MinRefreshInterval: l.duration("KEYCLOAK_MIN_REFRESH_INTERVAL", 0),
			ClockSkew:          l.duration("KEYCLOAK_CLOCK_SKEW", 0),
		},
		Server: ServerConfig{
			ListenAddr:      l.string("LISTEN_ADDR", ":8080"),
			ShutdownTimeout: l.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		LogLevel: strings.ToLower(l.string("LOG_LEVEL", "info")),
	}

	if err := errors.Join(l.errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that parsed but make no sense together.
func (c *Config) Validate() error {
	switch c.Keycloak.URIScheme {
	case "http", "https":
	default:
		return fmt.Errorf("KEYCLOAK_URI_SCHEME must be http or https, got %q", c.Keycloak.URIScheme)
	}
	if c.Keycloak.HTTPTimeout <= 0 {
		return errors.New("KEYCLOAK_HTTP_TIMEOUT must be positive")
	}
	if c.Keycloak.MinRefreshInterval < 0 {
		return errors.New("KEYCLOAK_MIN_REFRESH_INTERVAL cannot be negative")
	}
	if c.Keycloak.ClockSkew < 0 {
		return errors.New("KEYCLOAK_CLOCK_SKEW cannot be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}

// loader collects every problem so a broken deployment reports them at once.
type loader struct {
	errs []error
}

func (l *loader) required(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		l.errs = append(l.errs, fmt.Errorf("%s is required", key))
	}
	return v
}

func (l *loader) string(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
