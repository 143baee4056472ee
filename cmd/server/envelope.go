package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"example.com/minitwitter/internal/social"
)

// envelope is the uniform response wrapper every endpoint returns.
type envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{
		Status:  "success",
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func writeErrorCode(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// writeDomainError maps the core error taxonomy to fixed status codes.
// NotFound maps to 400, not 404, for compatibility with the legacy API.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, social.ErrValidation):
		writeErrorCode(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, social.ErrSelfFollow):
		writeErrorCode(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, social.ErrNotFound):
		writeErrorCode(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, social.ErrDuplicateRegistration):
		writeErrorCode(w, http.StatusConflict, err.Error())
	default:
		writeErrorCode(w, http.StatusInternalServerError, "internal error")
	}
}
