package handler

import (
	"errors"
	"maison-auth-api/common"
	"maison-auth-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// serviceError maps the service error taxonomy onto HTTP responses. Messages are
// generic; the precise cause is only in the logs.
func serviceError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Invalid email or password", nil).WithReason("invalid_credentials")
	case errors.Is(err, service.ErrAccountInactive):
		return common.NewAppError(http.StatusUnauthorized, "Account is inactive or pending approval", nil).WithReason("account_inactive")
	case errors.Is(err, service.ErrTokenMissing):
		return common.NewAppError(http.StatusUnauthorized, "Authentication required", nil).WithReason("token_missing")
	case errors.Is(err, service.ErrTokenInvalid):
		return common.NewAppError(http.StatusUnauthorized, "Invalid token", nil).WithReason("token_invalid")
	case errors.Is(err, service.ErrTokenExpired):
		return common.NewAppError(http.StatusUnauthorized, "Token has expired", nil).WithReason("token_expired")
	case errors.Is(err, service.ErrTokenReused):
		return common.NewAppError(http.StatusUnauthorized, "Session is no longer valid, please sign in again", nil).WithReason("session_revoked")
	case errors.Is(err, service.ErrSessionNotFound):
		return common.NewAppError(http.StatusNotFound, "Session not found", nil).WithReason("session_not_found")
	case errors.Is(err, service.ErrTooManyAttempts):
		return common.NewAppError(http.StatusTooManyRequests, "Too many login attempts, try again later", nil).WithReason("too_many_attempts")
	default:
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
