package tokengrpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"

	"github.com/bookstore-api/tokenauth/core"
)

// ErrInsufficientRole is returned when the identity lacks every role
// configured for the method with WithMethodRoles.
var ErrInsufficientRole = errors.New("insufficient role")

// Interceptor checks bearer tokens on incoming gRPC calls.
type Interceptor struct {
	core            *core.Core
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	methodRoles     map[string][]string
	logger          Logger

	// Internal builder for accumulating core options
	coreBuilder *coreBuilder
}

// New creates a new gRPC interceptor with the provided options.
// WithVerifier option is required.
func New(opts ...Option) (*Interceptor, error) {
	interceptor := &Interceptor{
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		methodRoles:     make(map[string][]string),
	}

	for _, opt := range opts {
		if err := opt(interceptor); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if interceptor.coreBuilder == nil {
		return nil, errors.New("verifier is required, use WithVerifier option")
	}

	c, err := interceptor.coreBuilder.build()
	if err != nil {
		return nil, err
	}
	interceptor.core = c

	return interceptor, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that checks
// the token and makes the identity available in the request context.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping token check for excluded method",
					"method", info.FullMethod)
			}
			return handler(ctx, req)
		}

		verifiedCtx, err := i.checkRequest(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(verifiedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that checks
// the token and makes the identity available in the stream context.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping token check for excluded method",
					"method", info.FullMethod)
			}
			return handler(srv, ss)
		}

		verifiedCtx, err := i.checkRequest(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          verifiedCtx,
		})
	}
}

func (i *Interceptor) checkRequest(ctx context.Context, method string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from gRPC metadata",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(err)
	}

	identity, err := i.core.CheckToken(ctx, token)
	if err != nil {
		return ctx, i.errorHandler(err)
	}

	roles := i.methodRoles[method]
	if identity == nil {
		if len(roles) > 0 {
			return ctx, i.errorHandler(core.ErrTokenMissing)
		}
		if i.logger != nil {
			i.logger.Debug("no credentials provided, continuing without identity",
				"method", method)
		}
		return ctx, nil
	}

	if len(roles) > 0 && !identity.HasAnyRole(roles...) {
		if i.logger != nil {
			i.logger.Info("role check failed",
				"email", identity.Email,
				"required", roles,
				"method", method)
		}
		return ctx, i.errorHandler(fmt.Errorf("%w: %s requires one of %v", ErrInsufficientRole, method, roles))
	}

	return core.SetIdentity(ctx, identity), nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context carrying the identity.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
