package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/router"
)

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(router.ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	if errors.Is(err, depot.ErrNotFound) {
		WriteError(w, http.StatusNotFound, router.CodeNotFound, "Object not found")
		return
	}

	if errors.Is(err, depot.ErrInvalidLink) {
		WriteError(w, http.StatusForbidden, "invalid_link", err.Error())
		return
	}

	slog.Error("request error", "error", err)

	if errors.Is(err, depot.ErrPermissionDenied) {
		WriteError(w, http.StatusInternalServerError, router.CodePermissionDenied, "Storage permission denied")
		return
	}

	// Default internal error
	WriteError(w, http.StatusInternalServerError, router.CodeInternalError, "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteEnvelope writes a router response as is.
func WriteEnvelope(w http.ResponseWriter, resp router.Response) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write([]byte(resp.Body)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
