// file: handler/session_handler.go

package handler

import (
	"context"
	"encoding/json"
	"maison-auth-api/common"
	"maison-auth-api/logger"
	"maison-auth-api/model"
	"net/http"

	"github.com/gorilla/mux"
)

// SessionManager is the session registry used by the session endpoints.
type SessionManager interface {
	ListSessions(ctx context.Context, userID string) ([]*model.Session, error)
	RevokeSession(ctx context.Context, userID, recordID string) error
	RevokeAllSessions(ctx context.Context, userID string) (int64, error)
}

type SessionHandler struct {
	sessions SessionManager
}

func NewSessionHandler(sessions SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListSessions godoc
// @Summary      List active sessions
// @Description  Returns one entry per live login of the caller.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Session
// @Failure      401  {object}  common.AppError
// @Router       /sessions [get]
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", errMissingUser)
	}

	sessions, err := h.sessions.ListSessions(r.Context(), userID)
	if err != nil {
		return serviceError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(sessions)
	return nil
}

// RevokeSession godoc
// @Summary      Revoke a session
// @Description  Ends the session and every token rotated from it. Sessions of other users are reported as not found.
// @Tags         sessions
// @Security     BearerAuth
// @Param        id   path  string  true  "Session id"
// @Success      204
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /sessions/{id} [delete]
func (h *SessionHandler) RevokeSession(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", errMissingUser)
	}

	sessionID := mux.Vars(r)["id"]
	if err := h.sessions.RevokeSession(r.Context(), userID, sessionID); err != nil {
		return serviceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// RevokeAllSessions godoc
// @Summary      Revoke all sessions
// @Description  Logs the caller out everywhere.
// @Tags         sessions
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /sessions [delete]
func (h *SessionHandler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", errMissingUser)
	}

	n, err := h.sessions.RevokeAllSessions(r.Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	logger.Log.WithField("user_id", userID).WithField("revoked", n).Info("Logout everywhere requested")

	w.WriteHeader(http.StatusNoContent)
	return nil
}
