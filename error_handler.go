package tokenauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bookstore-api/tokenauth/core"
	"github.com/bookstore-api/tokenauth/verifier"
)

var (
	// ErrTokenMissing is returned when the request carries no token.
	ErrTokenMissing = core.ErrTokenMissing

	// ErrForbidden is returned by RequireRoles when the identity lacks
	// every accepted role.
	ErrForbidden = errors.New("insufficient role")
)

// Error codes for failures detected before or after verification.
const (
	ErrorCodeInvalidRequest   = "invalid_request"
	ErrorCodeInsufficientRole = "insufficient_role"
)

// errorCode extends core.ErrorCode with the failures of this package.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAuthHeader):
		return ErrorCodeInvalidRequest
	case errors.Is(err, ErrForbidden):
		return ErrorCodeInsufficientRole
	default:
		return core.ErrorCode(err)
	}
}

// ErrorHandler is a handler which is called when an error occurs in the
// Middleware. The default handler maps the error to a status code as
// described on DefaultErrorHandler. A custom ErrorHandler MUST answer every
// error it is given; returning without writing a response lets the request
// through with a 200 and no body.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// DefaultErrorHandler is the default error handler implementation for the
// Middleware. It answers with:
//
//   - 400 for a missing token, a malformed Authorization header or a
//     malformed token
//   - 401 for a bad signature, an expired token, or a wrong audience or
//     issuer, with a WWW-Authenticate challenge
//   - 403 for a failed role check
//   - 503 when no signing key could be obtained from the IdP
//   - 500 for anything else
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ResponseFor(err)

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", Challenge(body))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Challenge returns the WWW-Authenticate value for a 401 response.
func Challenge(body ErrorResponse) string {
	return fmt.Sprintf(`Bearer error="invalid_token", error_description=%q`, body.Message)
}

// ResponseFor returns the status code and body DefaultErrorHandler writes
// for err. Framework adapters use it to answer in their own idiom.
func ResponseFor(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return http.StatusBadRequest, ErrorResponse{Message: "Token is missing.", Code: core.ErrorCodeTokenMissing}
	case errors.Is(err, ErrInvalidAuthHeader):
		return http.StatusBadRequest, ErrorResponse{Message: "Authorization header is malformed.", Code: ErrorCodeInvalidRequest}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Message: "Insufficient role.", Code: ErrorCodeInsufficientRole}
	}

	var verifyErr *verifier.VerifyError
	if !errors.As(err, &verifyErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Message: "Something went wrong while checking the token.",
			Code:    core.ErrorCodeInternal,
		}
	}

	body := ErrorResponse{Code: verifyErr.Code}
	switch verifyErr.Code {
	case verifier.ErrorCodeTokenMalformed:
		body.Message = "Token is malformed."
		return http.StatusBadRequest, body
	case verifier.ErrorCodeKeyUnavailable:
		body.Message = "Signing key is unavailable."
		return http.StatusServiceUnavailable, body
	case verifier.ErrorCodeTokenExpired:
		body.Message = "Token is expired."
	case verifier.ErrorCodeInvalidAudience:
		body.Message = "Token audience is invalid."
	case verifier.ErrorCodeInvalidIssuer:
		body.Message = "Token issuer is invalid."
	default:
		body.Message = "Token is invalid."
	}
	return http.StatusUnauthorized, body
}
