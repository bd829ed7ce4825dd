package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 16

var validate = validator.New()

// DecodeAndValidate decodes a JSON body into payload and runs its validate tags.
// An empty body is accepted when allowEmpty is set.
func DecodeAndValidate(r *http.Request, payload interface{}, allowEmpty bool) *AppError {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(payload); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return NewAppError(http.StatusBadRequest, "Invalid request body", nil)
		}
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, validationErrors.Error(), nil)
		}
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	return nil
}
