package utils

import (
	"encoding/json"
	"net/http"

	"swipe/interview/internal/models"
)

const contentTypeJSON = "application/json; charset=utf-8"

// JSON writes data with the given status. Encoding errors are ignored since
// the header has already been sent.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes the standard error body.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, models.ErrorResponse{Code: code, Message: message})
}

func NoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
