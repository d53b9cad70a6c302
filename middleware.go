package tokenauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bookstore-api/tokenauth/core"
	"github.com/bookstore-api/tokenauth/verifier"
)

// SpanName is the name of the span opened around every token check.
const SpanName = "tokenauth.verify"

// Middleware checks bearer tokens on incoming requests and stores the
// verified identity in the request context.
type Middleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             Metrics
	tracer              Tracer

	// Temporary fields used during construction
	verifier            core.TokenVerifier
	credentialsOptional bool
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from token checks.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new Middleware instance with the supplied options.
//
// Example:
//
//	m, err := tokenauth.New(
//	    tokenauth.WithVerifier(v),
//	    tokenauth.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		validateOnOptions:   true,
		credentialsOptional: false,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.verifier == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrVerifierNil)
	}

	m.applyDefaults()

	if err := m.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return m, nil
}

func (m *Middleware) createCore() error {
	coreOpts := []core.Option{
		core.WithVerifier(m.verifier),
		core.WithCredentialsOptional(m.credentialsOptional),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	m.core = c
	return nil
}

func (m *Middleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}
	if m.metrics == nil {
		m.metrics = &NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = &NoopTracer{}
	}
}

// GetIdentity retrieves the verified identity from the context.
//
// Example:
//
//	identity, err := tokenauth.GetIdentity(r.Context())
//	if err != nil {
//	    http.Error(w, "no identity", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(identity.Email)
func GetIdentity(ctx context.Context) (*verifier.Identity, error) {
	return core.GetIdentity(ctx)
}

// MustGetIdentity retrieves the identity from the context or panics.
// Use only behind RequireToken with credentials required.
func MustGetIdentity(ctx context.Context) *verifier.Identity {
	identity, err := core.GetIdentity(ctx)
	if err != nil {
		panic(err)
	}
	return identity
}

// HasIdentity checks if a verified identity exists in the context.
func HasIdentity(ctx context.Context) bool {
	return core.HasIdentity(ctx)
}

// CheckRequest extracts and verifies the token of r. It returns (nil, nil)
// when no token was sent and credentials are optional. Framework adapters
// use it to share the net/http code path.
func (m *Middleware) CheckRequest(r *http.Request) (*verifier.Identity, error) {
	token, err := m.tokenExtractor(r)
	if err != nil {
		// Not ErrTokenMissing: a token was sent, but in a form we could
		// not read.
		if m.logger != nil {
			m.logger.Warn("failed to extract token from request",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
		}
		m.metrics.ObserveVerification(errorCode(err), 0)
		return nil, fmt.Errorf("error extracting token: %w", err)
	}

	ctx, span := m.tracer.Start(r.Context(), SpanName)
	defer span.End()

	start := time.Now()
	identity, err := m.core.CheckToken(ctx, token)
	duration := time.Since(start)

	switch {
	case err != nil:
		code := core.ErrorCode(err)
		span.SetAttribute("tokenauth.outcome", code)
		span.RecordError(err)
		m.metrics.ObserveVerification(code, duration)
		return nil, err
	case identity == nil:
		span.SetAttribute("tokenauth.outcome", OutcomeAnonymous)
		m.metrics.ObserveVerification(OutcomeAnonymous, duration)
		return nil, nil
	default:
		span.SetAttribute("tokenauth.outcome", OutcomeSuccess)
		m.metrics.ObserveVerification(OutcomeSuccess, duration)
		return identity, nil
	}
}

// Skip reports whether r bypasses token checks: excluded URLs and, when
// configured, OPTIONS requests.
func (m *Middleware) Skip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		if m.logger != nil {
			m.logger.Debug("skipping token check for excluded URL",
				"method", r.Method,
				"path", r.URL.Path)
		}
		return true
	}
	if !m.validateOnOptions && r.Method == http.MethodOptions {
		if m.logger != nil {
			m.logger.Debug("skipping token check for OPTIONS request")
		}
		return true
	}
	return false
}

// ErrorHandler returns the configured error handler.
func (m *Middleware) ErrorHandler() ErrorHandler { return m.errorHandler }

// RequireToken is the main Middleware function. It is passed a
// http.Handler which will be called if the token passes verification.
func (m *Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.CheckRequest(r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		// Credentials optional and none sent.
		if identity == nil {
			next.ServeHTTP(w, r)
			return
		}

		r = r.Clone(core.SetIdentity(r.Context(), identity))
		next.ServeHTTP(w, r)
	})
}
