package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/calendar"
	"github.com/username/aviv-calendar/internal/ledger"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response
func WriteError(w http.ResponseWriter, status int, message string, code string) error {
	return WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Message: message,
			Code:    code,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message, "BAD_REQUEST")
}

// errorStatus maps engine errors to an HTTP status and error code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInputRange):
		return http.StatusBadRequest, "INPUT_RANGE"
	case errors.Is(err, astro.ErrUnknownLocation):
		return http.StatusBadRequest, "UNKNOWN_LOCATION"
	case errors.Is(err, astro.ErrNoSunEvent):
		return http.StatusUnprocessableEntity, "NO_SUN_EVENT"
	case errors.Is(err, calendar.ErrNoCoverage):
		return http.StatusNotFound, "NO_COVERAGE"
	case errors.Is(err, ledger.ErrDataUnavailable):
		return http.StatusServiceUnavailable, "DATA_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// WriteEngineError writes err with the status its kind maps to
func WriteEngineError(w http.ResponseWriter, err error) error {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error: " + message
	}
	return WriteError(w, status, message, code)
}
