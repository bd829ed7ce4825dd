package common

import (
	"encoding/json"
	"maison-auth-api/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AppError is the error shape every handler returns. Err is logged, never sent.
type AppError struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithReason attaches a stable machine-readable reason for clients.
func (e *AppError) WithReason(reason string) *AppError {
	e.Reason = reason
	return e
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		fields := logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		}
		if e.Code >= http.StatusInternalServerError {
			logger.Log.WithFields(fields).Error(e.Message)
		} else {
			logger.Log.WithFields(fields).Info(e.Message)
		}
	}

	if e.Code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}
