package service

import "errors"

// Authentication and session errors. Every one of them is surfaced to the caller;
// none is logged and dropped.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive or pending approval")
	ErrTokenMissing       = errors.New("token is missing")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenReused        = errors.New("refresh token reuse detected")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)
