// file: handler/auth_handler.go

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"maison-auth-api/common"
	"maison-auth-api/model"
	"maison-auth-api/service"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	maxDeviceInfoLength = 255
	maxIPAddressLength  = 45
)

// Authenticator is the token lifecycle as the transport layer sees it.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest, meta model.ClientMeta) (*model.TokenPair, error)
	Refresh(ctx context.Context, rawRefresh string, meta model.ClientMeta) (*model.TokenPair, error)
	Logout(ctx context.Context, rawRefresh string) error
}

type AuthHandler struct {
	auth      Authenticator
	cookies   CookieConfig
	accessTTL time.Duration
	now       func() time.Time
}

func NewAuthHandler(auth Authenticator, cookies CookieConfig, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, accessTTL: accessTTL, now: time.Now}
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials, starts a new session and sets the access and refresh cookies.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.LoginRequest  true  "Credentials"
// @Success      200          {object}  model.TokenPair
// @Failure      401          {object}  common.AppError
// @Failure      429          {object}  common.AppError
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	// Every malformed login answers like a wrong password.
	var req model.LoginRequest
	if appErr := common.DecodeAndValidate(r, &req, false); appErr != nil {
		return serviceError(service.ErrInvalidCredentials)
	}

	pair, err := h.auth.Login(r.Context(), req, clientMeta(r))
	if err != nil {
		return serviceError(err)
	}

	h.writePair(w, pair)
	return nil
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Exchanges the refresh token (cookie or body) for a new access and refresh token. Any 401 means the client must log in again.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.RefreshRequest  false  "Refresh token for clients without cookies"
// @Success      200   {object}  model.TokenPair
// @Failure      401   {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	raw, appErr := refreshTokenFromRequest(r)
	if appErr != nil {
		return appErr
	}

	pair, err := h.auth.Refresh(r.Context(), raw, clientMeta(r))
	if err != nil {
		appErr := serviceError(err)
		if appErr.Code == http.StatusUnauthorized {
			h.cookies.clearAuthCookies(w)
		}
		return appErr
	}

	h.writePair(w, pair)
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the session of the presented refresh token and clears both cookies.
// @Tags         auth
// @Param        body  body  model.RefreshRequest  false  "Refresh token for clients without cookies"
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	raw, appErr := refreshTokenFromRequest(r)
	if appErr != nil && appErr.Code != http.StatusUnauthorized {
		return appErr
	}

	if raw != "" {
		if err := h.auth.Logout(r.Context(), raw); err != nil {
			return serviceError(err)
		}
	}

	h.cookies.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *AuthHandler) writePair(w http.ResponseWriter, pair *model.TokenPair) {
	h.cookies.setAuthCookies(w, pair.AccessToken, h.accessTTL, pair.RefreshToken, pair.RefreshExpiresAt, h.now())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
}

// refreshTokenFromRequest prefers the refresh cookie and falls back to a JSON body.
func refreshTokenFromRequest(r *http.Request) (string, *common.AppError) {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	var req model.RefreshRequest
	if appErr := common.DecodeAndValidate(r, &req, true); appErr != nil || req.RefreshToken == "" {
		return "", serviceError(service.ErrTokenMissing)
	}
	return req.RefreshToken, nil
}

// clientMeta captures descriptive session metadata. It is never used for
// security decisions.
func clientMeta(r *http.Request) model.ClientMeta {
	return model.ClientMeta{
		DeviceInfo: truncate(r.UserAgent(), maxDeviceInfoLength),
		IPAddress:  truncate(clientIP(r), maxIPAddressLength),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// errMissingUser guards handlers mounted without AuthMiddleware.
var errMissingUser = errors.New("authenticated user missing from request context")
