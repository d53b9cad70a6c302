package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bookstore-api/tokenauth"
	"github.com/bookstore-api/tokenauth/internal/config"
	"github.com/bookstore-api/tokenauth/internal/keycloak"
	"github.com/bookstore-api/tokenauth/jwks"
	"github.com/bookstore-api/tokenauth/verifier"
)

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	zap      *zap.Logger
	logger   tokenauth.Logger
	urls     *keycloak.URLs
	provider *jwks.Provider
	verifier *verifier.Verifier
}

func loadApp(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	zl, err := newZapLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return newApp(cfg, zl)
}

func newZapLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func newApp(cfg *config.Config, zl *zap.Logger) (*app, error) {
	logger := tokenauth.NewZapLogger(zl)
	kc := cfg.Keycloak

	urls, err := keycloak.NewURLs(kc.Host, kc.Realm, kc.URIScheme)
	if err != nil {
		return nil, err
	}

	mode, err := jwks.ParseMode(kc.KeyMode)
	if err != nil {
		return nil, err
	}

	keysURL, err := urls.KeysURL(mode == jwks.ModePublicKey)
	if err != nil {
		return nil, err
	}

	provider, err := jwks.NewProvider(
		jwks.WithKeysURL(keysURL),
		jwks.WithMode(mode),
		jwks.WithTimeout(kc.HTTPTimeout),
		jwks.WithMinRefreshInterval(kc.MinRefreshInterval),
		jwks.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up key provider: %w", err)
	}

	opts := []verifier.Option{
		verifier.WithKeyProvider(provider),
		verifier.WithAudience(kc.Audience),
		verifier.WithClientID(kc.ClientID),
	}
	if kc.Issuer != "" {
		opts = append(opts, verifier.WithIssuer(kc.Issuer))
	}
	if kc.ClockSkew > 0 {
		opts = append(opts, verifier.WithAllowedClockSkew(kc.ClockSkew))
	}

	v, err := verifier.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up verifier: %w", err)
	}

	return &app{
		cfg:      cfg,
		zap:      zl,
		logger:   logger,
		urls:     urls,
		provider: provider,
		verifier: v,
	}, nil
}
