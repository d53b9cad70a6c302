package tokengrpc

import (
	"errors"

	"github.com/bookstore-api/tokenauth/core"
)

// Option configures the Interceptor.
type Option func(*Interceptor) error

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// coreBuilder helps build a core.Core with accumulated options.
type coreBuilder struct {
	verifier            core.TokenVerifier
	credentialsOptional bool
	logger              Logger
}

func (b *coreBuilder) build() (*core.Core, error) {
	if b.verifier == nil {
		return nil, errors.New("verifier is required, use WithVerifier option")
	}

	opts := []core.Option{
		core.WithVerifier(b.verifier),
		core.WithCredentialsOptional(b.credentialsOptional),
	}
	if b.logger != nil {
		opts = append(opts, core.WithLogger(b.logger))
	}

	return core.New(opts...)
}

func (i *Interceptor) builder() *coreBuilder {
	if i.coreBuilder == nil {
		i.coreBuilder = &coreBuilder{}
	}
	return i.coreBuilder
}

// WithVerifier sets the token verifier (REQUIRED).
//
// Example:
//
//	interceptor, _ := tokengrpc.New(
//	    tokengrpc.WithVerifier(v),
//	    tokengrpc.WithLogger(logger),
//	)
func WithVerifier(v core.TokenVerifier) Option {
	return func(i *Interceptor) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		i.builder().verifier = v
		return nil
	}
}

// WithCredentialsOptional allows calls without a token to proceed without
// an identity in the context.
//
// Default: false (credentials required)
func WithCredentialsOptional(optional bool) Option {
	return func(i *Interceptor) error {
		i.builder().credentialsOptional = optional
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor and its core.
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.builder().logger = logger
		i.logger = logger
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor function.
// Default is MetadataTokenExtractor.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler function.
// Default is DefaultErrorHandler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods excludes methods from token checks.
// Methods use the form "/package.Service/Method".
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}

// WithMethodRoles requires the identity to hold at least one of the listed
// roles for each method. Methods use the form "/package.Service/Method".
func WithMethodRoles(roles map[string][]string) Option {
	return func(i *Interceptor) error {
		for method, r := range roles {
			if len(r) == 0 {
				return errors.New("method roles cannot be empty: " + method)
			}
			i.methodRoles[method] = r
		}
		return nil
	}
}
