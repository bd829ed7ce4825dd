// file: handler/cookies.go

package handler

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CookieConfig controls how the credentials are bound to the response.
// The refresh cookie is scoped to RefreshPath so browsers only send it to the
// refresh and logout endpoints.
type CookieConfig struct {
	Secure      bool
	SameSite    http.SameSite
	Domain      string
	RefreshPath string
}

// ParseSameSite maps the configured name to http.SameSite, defaulting to Lax.
func ParseSameSite(name string) http.SameSite {
	switch strings.ToLower(name) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c CookieConfig) setAuthCookies(w http.ResponseWriter, access string, accessTTL time.Duration, refresh string, refreshExpiresAt time.Time, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    access,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refresh,
		Path:     c.RefreshPath,
		Domain:   c.Domain,
		MaxAge:   int(refreshExpiresAt.Sub(now).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func (c CookieConfig) clearAuthCookies(w http.ResponseWriter) {
	for _, ck := range []struct{ name, path string }{
		{AccessTokenCookie, "/"},
		{RefreshTokenCookie, c.RefreshPath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     ck.name,
			Value:    "",
			Path:     ck.path,
			Domain:   c.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}
}
