package domain

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	RoleDonor    = "DONOR"
	RoleReceiver = "RECEIVER"
)

var (
	MesaageUserNotAllowed       = "user not allowed"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedGetToken       = "failed to get token"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageInternalError        = "an internal server error occurred"
)

// Error kinds. Every error returned by a service wraps exactly one of these so
// the transport layer can pick a status code without knowing the specifics.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrAuthorization  = errors.New("authorization error")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

var (
	ErrParseUUID      = fmt.Errorf("%w: failed to parse UUID", ErrValidation)
	ErrUserNotAllowed = fmt.Errorf("%w: user not allowed", ErrAuthorization)
	ErrTokenNotFound  = fmt.Errorf("%w: failed to token not found", ErrAuthentication)
	ErrTokenInvalid   = fmt.Errorf("%w: token invalid", ErrAuthentication)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrAuthentication)

	ErrMissingJWTSecret = fmt.Errorf("%w: JWT_SECRET is not configured", ErrInternal)
)

// Internal wraps an infrastructure failure so it is reported as ErrInternal
// while keeping the cause for logs.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// StatusCode maps an error kind to the HTTP status the API answers with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
