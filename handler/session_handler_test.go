// handler/session_handler_test.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"maison-auth-api/model"
	"maison-auth-api/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const callerID = "11111111-1111-1111-1111-111111111111"

func authenticated(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), UserIDKey, callerID))
}

func TestSessionHandler_ListSessions(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sessions := new(mockSessionManager)
		h := NewSessionHandler(sessions)
		list := []*model.Session{{
			ID:         "record-1",
			FamilyID:   "family-1",
			DeviceInfo: "Firefox",
			IPAddress:  "203.0.113.7",
			CreatedAt:  testNow.Add(-time.Hour),
			LastUsedAt: testNow.Add(-time.Minute),
			ExpiresAt:  testNow.Add(7 * 24 * time.Hour),
		}}
		sessions.On("ListSessions", mock.Anything, callerID).Return(list, nil).Once()

		req := authenticated(httptest.NewRequest(http.MethodGet, "/sessions", nil))
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.ListSessions).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body []map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, "record-1", body[0]["id"])
		assert.Equal(t, "Firefox", body[0]["device_info"])
		assert.NotContains(t, rr.Body.String(), "token_hash")
		sessions.AssertExpectations(t)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		sessions := new(mockSessionManager)
		h := NewSessionHandler(sessions)
		sessions.On("ListSessions", mock.Anything, callerID).Return([]*model.Session{}, nil).Once()

		req := authenticated(httptest.NewRequest(http.MethodGet, "/sessions", nil))
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.ListSessions).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("without authenticated user", func(t *testing.T) {
		sessions := new(mockSessionManager)
		h := NewSessionHandler(sessions)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ListSessions).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sessions", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		sessions.AssertNotCalled(t, "ListSessions", mock.Anything, mock.Anything)
	})

	t.Run("service error", func(t *testing.T) {
		sessions := new(mockSessionManager)
		h := NewSessionHandler(sessions)
		sessions.On("ListSessions", mock.Anything, callerID).Return(nil, errors.New("boom")).Once()

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ListSessions).ServeHTTP(rr, authenticated(httptest.NewRequest(http.MethodGet, "/sessions", nil)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestSessionHandler_RevokeSession(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sessions := new(mockSessionManager)
		h := NewSessionHandler(sessions)
		sessions.On("RevokeSession", mock.Anything, callerID, "record-1").Return(nil).Once()

		req := authenticated(httptest.NewRequest(http.MethodDelete, "/sessions/record-1", nil))
		req = mux.SetURLVars(req, map[string]string{"id": "record-1"})
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.RevokeSession).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		sessions.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		sessions := new(mockSessionManager)
		h := NewSessionHandler(sessions)
		sessions.On("RevokeSession", mock.Anything, callerID, "someone-elses").Return(service.ErrSessionNotFound).Once()

		req := authenticated(httptest.NewRequest(http.MethodDelete, "/sessions/someone-elses", nil))
		req = mux.SetURLVars(req, map[string]string{"id": "someone-elses"})
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.RevokeSession).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "session_not_found", decodeError(t, rr)["reason"])
	})
}

func TestSessionHandler_RevokeAllSessions(t *testing.T) {
	sessions := new(mockSessionManager)
	h := NewSessionHandler(sessions)
	sessions.On("RevokeAllSessions", mock.Anything, callerID).Return(int64(2), nil).Once()

	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(h.RevokeAllSessions).ServeHTTP(rr, authenticated(httptest.NewRequest(http.MethodDelete, "/sessions", nil)))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	sessions.AssertExpectations(t)
}
