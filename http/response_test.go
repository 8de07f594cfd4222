package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/depot"
	depothttp "github.com/sagarc03/depot/http"
	"github.com/sagarc03/depot/router"
	"github.com/stretchr/testify/assert"
)

func TestHandleError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.HandleError(rec, depot.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandleError_InvalidLink(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.HandleError(rec, fmt.Errorf("signature mismatch: %w", depot.ErrInvalidLink))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_link")
	assert.Contains(t, rec.Body.String(), "signature mismatch")
}

func TestHandleError_PermissionDenied(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.HandleError(rec, depot.NewStoreError("get object", depot.ErrPermissionDenied, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "permission_denied")
}

func TestHandleError_InternalError(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.HandleError(rec, errors.New("some unexpected error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
	assert.NotContains(t, rec.Body.String(), "some unexpected error")
}

func TestHandleError_WrappedNotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	wrappedErr := errors.Join(errors.New("context"), depot.ErrNotFound)
	depothttp.HandleError(rec, wrappedErr)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestWriteError_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.WriteError(rec, http.StatusBadRequest, "bad_request", "Invalid request")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error":"bad_request"`)
	assert.Contains(t, rec.Body.String(), `"message":"Invalid request"`)
}

func TestWriteJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	data := map[string]string{"key": "value"}
	err := depothttp.WriteJSON(rec, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"key":"value"`)
}

func TestWriteJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()

	// Channels cannot be JSON encoded
	data := make(chan int)
	err := depothttp.WriteJSON(rec, http.StatusOK, data)

	assert.Error(t, err)
}

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.WriteEnvelope(rec, router.Response{
		StatusCode: http.StatusNotFound,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"error":"not_found","message":"download a.jpg: not found"}`,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"not_found","message":"download a.jpg: not found"}`, rec.Body.String())
}
