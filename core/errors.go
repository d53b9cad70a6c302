package core

import (
	"errors"

	"github.com/bookstore-api/tokenauth/verifier"
)

var (
	// ErrTokenMissing is returned when no token was presented and
	// credentials are required.
	ErrTokenMissing = errors.New("token missing")

	// ErrIdentityNotFound is returned when no identity is stored in the context.
	ErrIdentityNotFound = errors.New("identity not found in context")
)

// Error codes for failures that happen outside the verifier.
const (
	ErrorCodeTokenMissing = "token_missing"
	ErrorCodeInternal     = "internal_error"
)

// ErrorCode returns the machine-readable code of err: the VerifyError code
// for verification failures, token_missing for ErrTokenMissing and
// internal_error for anything else.
func ErrorCode(err error) string {
	var verifyErr *verifier.VerifyError
	switch {
	case errors.As(err, &verifyErr):
		return verifyErr.Code
	case errors.Is(err, ErrTokenMissing):
		return ErrorCodeTokenMissing
	default:
		return ErrorCodeInternal
	}
}
