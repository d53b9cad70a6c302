package tokengrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bookstore-api/tokenauth/core"
	"github.com/bookstore-api/tokenauth/verifier"
)

// ErrorHandler converts check failures to gRPC status errors.
type ErrorHandler func(error) error

// DefaultErrorHandler maps check failures to gRPC status codes:
//
//   - missing token, bad signature, expired: Unauthenticated
//   - wrong audience or issuer, insufficient role: PermissionDenied
//   - malformed metadata or token: InvalidArgument
//   - no signing key available: Unavailable
//   - anything else: Internal
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, core.ErrTokenMissing) {
		return status.Error(codes.Unauthenticated, "missing credentials")
	}

	if errors.Is(err, ErrMultipleAuthHeaders) ||
		errors.Is(err, ErrInvalidAuthFormat) ||
		errors.Is(err, ErrUnsupportedScheme) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	if errors.Is(err, ErrInsufficientRole) {
		return status.Error(codes.PermissionDenied, "insufficient role")
	}

	var verifyErr *verifier.VerifyError
	if errors.As(err, &verifyErr) {
		return mapVerifyError(verifyErr)
	}

	return status.Error(codes.Internal, "unable to verify token")
}

func mapVerifyError(err *verifier.VerifyError) error {
	switch err.Code {
	case verifier.ErrorCodeTokenMalformed:
		return status.Error(codes.InvalidArgument, "malformed token")
	case verifier.ErrorCodeKeyUnavailable:
		return status.Error(codes.Unavailable, "unable to verify token")
	case verifier.ErrorCodeInvalidSignature:
		return status.Error(codes.Unauthenticated, "invalid signature")
	case verifier.ErrorCodeTokenExpired:
		return status.Error(codes.Unauthenticated, err.Message)
	case verifier.ErrorCodeInvalidAudience:
		return status.Error(codes.PermissionDenied, "invalid audience")
	case verifier.ErrorCodeInvalidIssuer:
		return status.Error(codes.PermissionDenied, "invalid issuer")
	default:
		return status.Error(codes.Unauthenticated, "invalid token")
	}
}
