package handler

import (
	"context"
	"maison-auth-api/common"
	"maison-auth-api/model"
	"maison-auth-api/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
	CondoIDKey  contextKey = "condoID"
	ClaimsKey   contextKey = "claims"
)

// AccessTokenVerifier validates access tokens without storage access.
type AccessTokenVerifier interface {
	Verify(tokenString string) (*model.AppClaims, error)
}

// AuthMiddleware accepts an access token from the Authorization header or,
// for browser clients, from the access token cookie.
func AuthMiddleware(verifier AccessTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, appErr := accessTokenFromRequest(r)
			if appErr != nil {
				appErr.Send(w)
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				serviceError(err).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			ctx = context.WithValue(ctx, CondoIDKey, claims.CondominiumID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFromRequest(r *http.Request) (string, *common.AppError) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		headerParts := strings.Fields(authHeader)
		if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
			return "", serviceError(service.ErrTokenInvalid)
		}
		return headerParts[1], nil
	}

	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", serviceError(service.ErrTokenMissing)
}

// UserIDFromContext returns the authenticated principal id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
