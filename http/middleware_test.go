package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sagarc03/depot"
	depothttp "github.com/sagarc03/depot/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingVerifier captures the arguments it is called with
type recordingVerifier struct {
	method string
	path   string
	host   string
	err    error
}

func (v *recordingVerifier) Verify(method, path string, query url.Values, headers http.Header) error {
	v.method = method
	v.path = path
	v.host = headers.Get("Host")
	return v.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestSignedLinkMiddleware_ValidLink(t *testing.T) {
	signer := depot.NewLinkSigner("depot", "test-secret", "us-east-1")
	wrapped := depothttp.SignedLinkMiddleware(signer)(okHandler())

	link, _, err := signer.Presign("http://depot.test", "/blobs/photos/a b.jpg", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", link, nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSignedLinkMiddleware_PassesEscapedPathAndHost(t *testing.T) {
	verifier := &recordingVerifier{}
	wrapped := depothttp.SignedLinkMiddleware(verifier)(okHandler())

	req := httptest.NewRequest("GET", "http://depot.test/blobs/a%20b.jpg", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET", verifier.method)
	assert.Equal(t, "/blobs/a%20b.jpg", verifier.path)
	assert.Equal(t, "depot.test", verifier.host)
}

func TestSignedLinkMiddleware_Rejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
	verifier := &recordingVerifier{err: errors.Join(errors.New("link expired"), depot.ErrInvalidLink)}
	wrapped := depothttp.SignedLinkMiddleware(verifier)(handler)

	req := httptest.NewRequest("GET", "/blobs/a.jpg", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_link")
}

func TestSignedLinkMiddleware_NoVerifier(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
	wrapped := depothttp.SignedLinkMiddleware(nil)(handler)

	req := httptest.NewRequest("GET", "/blobs/a.jpg", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestLogger_PreservesResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	wrapped := depothttp.RequestLogger(handler)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
