package verifier

import "errors"

// Sentinel errors for token verification. Verify never returns them bare:
// every failure is a *VerifyError whose Is method matches the sentinel of
// its code.
var (
	// ErrMalformedToken is returned when the token is not a well formed
	// compact JWS or lacks a required claim.
	ErrMalformedToken = errors.New("malformed token")

	// ErrKeyUnavailable is returned when no key could be obtained for the
	// token: the IdP is unreachable, published no usable key, or does not
	// know the token's key id.
	ErrKeyUnavailable = errors.New("signing key unavailable")

	// ErrBadSignature is returned when the signature does not verify, or
	// the token asks for an algorithm other than the one bound to its key.
	ErrBadSignature = errors.New("bad signature")

	// ErrExpired is returned when the token is outside its validity window.
	ErrExpired = errors.New("token expired")

	// ErrWrongAudience is returned when the token was issued for another client.
	ErrWrongAudience = errors.New("wrong audience")

	// ErrWrongIssuer is returned when the token was issued by another IdP.
	ErrWrongIssuer = errors.New("wrong issuer")
)

// Error codes carried by VerifyError.Code.
const (
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeKeyUnavailable   = "key_unavailable"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeInvalidAudience  = "invalid_audience"
	ErrorCodeInvalidIssuer    = "invalid_issuer"
)

var sentinels = map[string]error{
	ErrorCodeTokenMalformed:   ErrMalformedToken,
	ErrorCodeKeyUnavailable:   ErrKeyUnavailable,
	ErrorCodeInvalidSignature: ErrBadSignature,
	ErrorCodeTokenExpired:     ErrExpired,
	ErrorCodeInvalidAudience:  ErrWrongAudience,
	ErrorCodeInvalidIssuer:    ErrWrongIssuer,
}

// VerifyError is the typed failure returned by Verifier.Verify.
// It provides structured error information that can be used for
// logging, metrics, and mapping to transport status codes.
type VerifyError struct {
	// Code is a machine-readable error code (e.g. "token_expired").
	Code string

	// Message is a human-readable error message.
	Message string

	// Details contains the underlying error, if any.
	Details error
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *VerifyError) Unwrap() error {
	return e.Details
}

// Is matches the sentinel error of the code.
func (e *VerifyError) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]
	return ok && target == sentinel
}

func newVerifyError(code, message string, details error) *VerifyError {
	return &VerifyError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
