package http

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/objectstore/filesystem"
	"github.com/sagarc03/depot/router"
)

// BlobRoute is the path prefix serving blobs behind signed links.
const BlobRoute = filesystem.BlobRoute

// Dispatcher turns a request envelope into a response envelope.
// *router.Router implements it.
type Dispatcher interface {
	Handle(ctx context.Context, req router.Request) router.Response
}

// BlobReader opens stored blobs for the signed blob route.
type BlobReader interface {
	Get(ctx context.Context, key string) (io.ReadSeekCloser, depot.ObjectInfo, error)
}

// LinkVerifier checks the signature of a presigned link.
type LinkVerifier interface {
	Verify(method, path string, query url.Values, headers http.Header) error
}

// CORSConfig holds the cross-origin settings applied when Enabled is set.
type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// MaxUploadSize limits request bodies in bytes. Zero means unlimited.
	MaxUploadSize int64
	// Blobs enables the blob route when set. LinkVerifier is then required.
	Blobs        BlobReader
	LinkVerifier LinkVerifier
	CORS         CORSConfig
}

// Handler exposes a Dispatcher over HTTP.
type Handler struct {
	config     HandlerConfig
	dispatcher Dispatcher
}

// NewHandler creates a new Handler with the given configuration and dispatcher.
func NewHandler(config *HandlerConfig, dispatcher Dispatcher) *Handler {
	return &Handler{
		config:     *config,
		dispatcher: dispatcher,
	}
}

// Router returns an http.Handler with all depot routes.
// Any method on / and /files carries an action request. The blob route is
// only mounted when the handler is configured with a BlobReader.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)

	// Every method reaches the dispatcher, which rejects unknown
	// (method, action) pairs with its own error envelope.
	for _, pattern := range []string{"/", "/files"} {
		r.HandleFunc(pattern, h.handleAction)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, router.CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusBadRequest, router.CodeInvalidRequest, "unsupported method or action")
	})

	if h.config.Blobs != nil {
		r.Group(func(r chi.Router) {
			r.Use(SignedLinkMiddleware(h.config.LinkVerifier))
			r.Get(BlobRoute+"*", h.handleBlob)
		})
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body exceeds the upload limit")
			return
		}
		WriteError(w, http.StatusBadRequest, router.CodeInvalidArgument, "Failed to read request body")
		return
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	resp := h.dispatcher.Handle(r.Context(), router.Request{
		Method: r.Method,
		Query:  query,
		Body:   body,
	})

	WriteEnvelope(w, resp)
}

// readBody returns the request body as the envelope expects it. Raw binary
// bodies are base64 encoded, any other body is passed through as text.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}

	reader := io.Reader(r.Body)
	if h.config.MaxUploadSize > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	if isOctetStream(r.Header.Get("Content-Type")) {
		return base64.StdEncoding.EncodeToString(data), nil
	}

	return string(data), nil
}

func isOctetStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/octet-stream"
}

func (h *Handler) handleBlob(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, BlobRoute)

	if !depot.IsValidKey(key) {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	content, info, err := h.config.Blobs.Get(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	http.ServeContent(w, r, key, info.LastModified, content)
}
