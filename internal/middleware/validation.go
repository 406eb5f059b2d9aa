package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"swipe/interview/internal/models"
	"swipe/interview/internal/utils"
)

type contextKey string

const bodyKey contextKey = "decoded_body"

// maxBodyBytes caps request bodies; resume text is the largest field.
const maxBodyBytes = 1 << 20

// Validator is implemented by request models. Validate may normalize fields.
type Validator interface {
	Validate() error
}

// validatable ties a request model T to its pointer receiver methods.
type validatable[T any] interface {
	*T
	Validator
}

// DecodeJSON decodes the body into a fresh T, validates it and hands it to
// next through the request context. Read it back with Body.
func DecodeJSON[T any, PT validatable[T]]() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := PT(new(T))
			if status, code, msg, ok := decode(w, r, req); !ok {
				utils.Error(w, status, code, msg)
				return
			}

			if err := req.Validate(); err != nil {
				var errResp *models.ErrorResponse
				if errors.As(err, &errResp) {
					utils.JSON(w, http.StatusBadRequest, errResp)
					return
				}
				utils.Error(w, http.StatusBadRequest, "validation_error", err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey, req)))
		})
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) (int, string, string, bool) {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return 0, "", "", true
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large", "Request body is too large", false
	case errors.Is(err, io.EOF):
		return http.StatusBadRequest, "empty_body", "Request body is required", false
	default:
		return http.StatusBadRequest, "invalid_json", "Invalid JSON in request body", false
	}
}

// Body returns the request model stored by DecodeJSON. It panics when the
// route is not wrapped by DecodeJSON[T].
func Body[T any](r *http.Request) *T {
	return r.Context().Value(bodyKey).(*T)
}
