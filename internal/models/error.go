package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication flow errors
	ErrOTPInvalid     = errors.New("invalid or expired code")
	ErrDeliveryFailed = errors.New("failed to deliver one-time code")

	// Document lifecycle errors
	ErrStorage      = errors.New("storage operation failed")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrWrongState   = errors.New("document is not in the required state")
)
