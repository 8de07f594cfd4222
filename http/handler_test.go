package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/depot"
	depothttp "github.com/sagarc03/depot/http"
	"github.com/sagarc03/depot/objectstore/filesystem"
	"github.com/sagarc03/depot/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDispatcher is a mock implementation of http.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Handle(ctx context.Context, req router.Request) router.Response {
	args := m.Called(ctx, req)
	return args.Get(0).(router.Response)
}

func okResponse(body string) router.Response {
	return router.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func TestHandler_Action_Get(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)

	dispatcher.On("Handle", mock.Anything, router.Request{
		Method: "GET",
		Query:  map[string]string{"action": "download", "imageName": "a.jpg"},
		Body:   "",
	}).Return(okResponse(`{"downloadUrl":"x"}`))

	req := httptest.NewRequest("GET", "/?action=download&imageName=a.jpg", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"downloadUrl":"x"}`, rec.Body.String())
	dispatcher.AssertExpectations(t)
}

func TestHandler_Action_FilesPath(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)

	dispatcher.On("Handle", mock.Anything, mock.MatchedBy(func(req router.Request) bool {
		return req.Query["action"] == "list" && req.Query["prefix"] == "img/"
	})).Return(okResponse(`{"files":[]}`))

	req := httptest.NewRequest("GET", "/files?action=list&prefix=img/", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	dispatcher.AssertExpectations(t)
}

func TestHandler_Action_FirstQueryValueWins(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)

	dispatcher.On("Handle", mock.Anything, mock.MatchedBy(func(req router.Request) bool {
		return req.Query["fileName"] == "first.txt"
	})).Return(okResponse(`{}`))

	req := httptest.NewRequest("GET", "/?action=delete&fileName=first.txt&fileName=second.txt", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	dispatcher.AssertExpectations(t)
}

func TestHandler_Action_UploadBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"base64 text passes through", "text/plain", "WFg=", "WFg="},
		{"no content type passes through", "", "WFg=", "WFg="},
		{"octet stream is encoded", "application/octet-stream", "XX", "WFg="},
		{"octet stream with params", "application/octet-stream; charset=binary", "XX", "WFg="},
		{"empty octet stream", "application/octet-stream", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := new(MockDispatcher)
			handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)

			dispatcher.On("Handle", mock.Anything, router.Request{
				Method: "POST",
				Query:  map[string]string{"action": "upload", "fileName": "a.jpg"},
				Body:   tt.want,
			}).Return(okResponse(`{"fileId":"a.jpg"}`))

			req := httptest.NewRequest("POST", "/?action=upload&fileName=a.jpg", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			dispatcher.AssertExpectations(t)
		})
	}
}

func TestHandler_Action_MaxUploadSize(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{MaxUploadSize: 4}, dispatcher)

	req := httptest.NewRequest("POST", "/?action=upload&fileName=a.jpg", strings.NewReader("too large"))
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload_too_large")
	dispatcher.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestHandler_Action_ErrorEnvelope(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)

	dispatcher.On("Handle", mock.Anything, mock.Anything).Return(router.Response{
		StatusCode: http.StatusBadRequest,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"error":"invalid_request","message":"unsupported method or action"}`,
	})

	req := httptest.NewRequest("POST", "/files?action=list", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestHandler_UnsupportedMethod(t *testing.T) {
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, router.New(nil))

	for _, method := range []string{"PUT", "DELETE", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/?action=delete&imageName=a.jpg", nil)
			rec := httptest.NewRecorder()

			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"error":"invalid_request","message":"unsupported method or action"}`, rec.Body.String())
		})
	}
}

func TestHandler_UnknownRoute(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
	dispatcher.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestHandler_Health(t *testing.T) {
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, new(MockDispatcher))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_CORS(t *testing.T) {
	config := &depothttp.HandlerConfig{
		CORS: depothttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://app.example.com"},
			AllowedMethods: []string{"GET", "POST"},
			MaxAge:         300,
		},
	}
	handler := depothttp.NewHandler(config, new(MockDispatcher))

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestHandler_CORSDisabled(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, dispatcher)
	dispatcher.On("Handle", mock.Anything, mock.Anything).Return(okResponse(`{}`))

	req := httptest.NewRequest("GET", "/?action=list", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

const testPublicURL = "http://depot.test"

func setupBlobHandler(t *testing.T) (*filesystem.Store, *depot.LinkSigner, http.Handler) {
	t.Helper()

	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	signer := depot.NewLinkSigner("depot", "test-secret", "us-east-1")
	store := filesystem.New(root, signer, testPublicURL)

	config := &depothttp.HandlerConfig{Blobs: store, LinkVerifier: signer}
	handler := depothttp.NewHandler(config, new(MockDispatcher))

	return store, signer, handler.Router()
}

func TestHandler_Blob(t *testing.T) {
	store, _, handler := setupBlobHandler(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "img/a.jpg", []byte("XX")))
	link, err := store.PresignGet(ctx, "img/a.jpg", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", link, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "XX", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))
}

func TestHandler_Blob_Range(t *testing.T) {
	store, _, handler := setupBlobHandler(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "notes.txt", []byte("hello world")))
	link, err := store.PresignGet(ctx, "notes.txt", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", link, nil)
	req.Header.Set("Range", "bytes=0-4")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestHandler_Blob_MissingObject(t *testing.T) {
	store, _, handler := setupBlobHandler(t)

	link, err := store.PresignGet(context.Background(), "missing.jpg", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", link, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandler_Blob_Unsigned(t *testing.T) {
	store, _, handler := setupBlobHandler(t)
	require.NoError(t, store.Put(context.Background(), "a.jpg", []byte("XX")))

	req := httptest.NewRequest("GET", testPublicURL+"/blobs/a.jpg", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_link")
}

func TestHandler_Blob_LinkForOtherKey(t *testing.T) {
	store, _, handler := setupBlobHandler(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.jpg", []byte("XX")))
	require.NoError(t, store.Put(ctx, "b.jpg", []byte("YY")))
	link, err := store.PresignGet(ctx, "a.jpg", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", strings.Replace(link, "/blobs/a.jpg", "/blobs/b.jpg", 1), nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_Blob_NotMounted(t *testing.T) {
	handler := depothttp.NewHandler(&depothttp.HandlerConfig{}, new(MockDispatcher))

	req := httptest.NewRequest("GET", "/blobs/a.jpg", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
