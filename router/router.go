package router

import (
	"maison-auth-api/handler"
	"net/http"

	_ "maison-auth-api/docs"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Options holds the transport settings the router needs.
type Options struct {
	// RefreshPath prefixes the refresh and logout endpoints; it must match the
	// path the refresh cookie is scoped to.
	RefreshPath string
	CORSOrigins []string
}

func NewRouter(authHandler *handler.AuthHandler, sessionHandler *handler.SessionHandler, verifier handler.AccessTokenVerifier, opts Options) http.Handler {
	if opts.RefreshPath == "" {
		opts.RefreshPath = "/auth"
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	r.Handle("/login", handler.ErrorHandlingMiddleware(authHandler.Login)).Methods(http.MethodPost)

	auth := r.PathPrefix(opts.RefreshPath).Subrouter()
	auth.Handle("/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh)).Methods(http.MethodPost)
	auth.Handle("/logout", handler.ErrorHandlingMiddleware(authHandler.Logout)).Methods(http.MethodPost)

	sessions := r.PathPrefix("/sessions").Subrouter()
	sessions.Use(handler.AuthMiddleware(verifier))
	sessions.Handle("", handler.ErrorHandlingMiddleware(sessionHandler.ListSessions)).Methods(http.MethodGet)
	sessions.Handle("", handler.ErrorHandlingMiddleware(sessionHandler.RevokeAllSessions)).Methods(http.MethodDelete)
	sessions.Handle("/{id}", handler.ErrorHandlingMiddleware(sessionHandler.RevokeSession)).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
