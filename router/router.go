// Package router dispatches request envelopes to the file service and
// normalizes every outcome into a response envelope.
//
// The router is transport agnostic. The http and lambda packages convert
// their native requests into a Request, call Handle and write the Response
// back out unchanged.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/depot"
)

// Actions accepted in the "action" query parameter.
const (
	ActionUpload   = "upload"
	ActionDownload = "download"
	ActionList     = "list"
	ActionDelete   = "delete"
)

// Error codes written to the "error" field of failure bodies.
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeInvalidRequest     = "invalid_request"
	CodeNotFound           = "not_found"
	CodeBackendUnavailable = "backend_unavailable"
	CodePermissionDenied   = "permission_denied"
	CodeInternalError      = "internal_error"
)

// Service is the subset of depot.FileService the router dispatches to.
type Service interface {
	Upload(ctx context.Context, in depot.UploadInput) (depot.UploadResult, error)
	Download(ctx context.Context, fileID string) (depot.DownloadResult, error)
	Delete(ctx context.Context, fileID string) error
	PrefixSearch(ctx context.Context, prefix string, limit int) ([]depot.ObjectInfo, error)
	SizeSearch(ctx context.Context, r depot.SizeRange, limit int) ([]depot.ObjectInfo, error)
}

// Request is an inbound HTTP-style request.
// Body carries base64 encoded file content for uploads.
type Request struct {
	Method string
	Query  map[string]string
	Body   string
}

// Response is the uniform outbound envelope. Body is always a JSON object.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FileResponse is the body of a successful upload or delete.
type FileResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

// DownloadResponse is the body of a successful download.
type DownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresAt   string `json:"expiresAt"`
	Metadata    any    `json:"metadata"`
}

// ListResponse is the body of a successful search.
type ListResponse struct {
	Files []depot.ObjectInfo `json:"files"`
}

type route struct {
	method string
	action string
}

type handlerFunc func(ctx context.Context, req Request) (int, any, error)

// Router dispatches requests on their (method, action) pair.
type Router struct {
	service Service
	routes  map[route]handlerFunc
}

// New creates a Router backed by service.
func New(service Service) *Router {
	r := &Router{service: service}
	r.routes = map[route]handlerFunc{
		{http.MethodPost, ActionUpload}:  r.handleUpload,
		{http.MethodGet, ActionDownload}: r.handleDownload,
		{http.MethodGet, ActionList}:     r.handleList,
		{http.MethodGet, ActionDelete}:   r.handleDelete,
	}
	return r
}

// Handle runs the handler registered for the request's method and action.
// It never fails: every error, including a panic inside a handler, is turned
// into an error envelope.
func (r *Router) Handle(ctx context.Context, req Request) (resp Response) {
	key := route{
		method: strings.ToUpper(req.Method),
		action: req.Query["action"],
	}

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%w: panic: %v", depot.ErrUnexpected, p)
			resp = errorResponse(ctx, key, err)
		}
	}()

	handle, ok := r.routes[key]
	if !ok {
		slog.WarnContext(ctx, "unmatched request", "method", key.method, "action", key.action)
		return writeError(http.StatusBadRequest, CodeInvalidRequest, "unsupported method or action")
	}

	code, body, err := handle(ctx, req)
	if err != nil {
		return errorResponse(ctx, key, err)
	}

	return writeJSON(code, body)
}

func (r *Router) handleUpload(ctx context.Context, req Request) (int, any, error) {
	fileID := req.Query["fileName"]

	var metadata any
	if raw, ok := req.Query["metadata"]; ok && raw != "" {
		if err := depot.UnmarshalJSON([]byte(raw), &metadata); err != nil {
			return 0, nil, fmt.Errorf("%w: metadata is not valid JSON: %v", depot.ErrInvalidArgument, err)
		}
	}

	result, err := r.service.Upload(ctx, depot.UploadInput{
		FileID:   fileID,
		Metadata: metadata,
		Content:  []byte(req.Body),
		Encoding: depot.EncodingBase64,
	})
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, FileResponse{Message: "file uploaded", FileID: result.FileID}, nil
}

func (r *Router) handleDownload(ctx context.Context, req Request) (int, any, error) {
	result, err := r.service.Download(ctx, fileName(req))
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, DownloadResponse{
		DownloadURL: result.Link,
		ExpiresAt:   result.ExpiresAt.Format(time.RFC3339),
		Metadata:    result.Metadata,
	}, nil
}

func (r *Router) handleDelete(ctx context.Context, req Request) (int, any, error) {
	fileID := fileName(req)
	if err := r.service.Delete(ctx, fileID); err != nil {
		return 0, nil, err
	}

	return http.StatusOK, FileResponse{Message: "file deleted", FileID: fileID}, nil
}

func (r *Router) handleList(ctx context.Context, req Request) (int, any, error) {
	if prefix := req.Query["prefix"]; prefix != "" {
		files, err := r.service.PrefixSearch(ctx, prefix, 0)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, listResponse(files), nil
	}

	minSize, err := sizeParam(req, "minSize")
	if err != nil {
		return 0, nil, err
	}
	maxSize, err := sizeParam(req, "maxSize")
	if err != nil {
		return 0, nil, err
	}

	if minSize == 0 && maxSize == 0 {
		return 0, nil, fmt.Errorf("%w: provide a prefix or size range", depot.ErrInvalidArgument)
	}

	files, err := r.service.SizeSearch(ctx, depot.SizeRange{Min: minSize, Max: maxSize}, 0)
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, listResponse(files), nil
}

func listResponse(files []depot.ObjectInfo) ListResponse {
	if files == nil {
		files = []depot.ObjectInfo{}
	}
	return ListResponse{Files: files}
}

// fileName returns the target of a download or delete. imageName wins over
// fileName when both are present.
func fileName(req Request) string {
	if name, ok := req.Query["imageName"]; ok {
		return name
	}
	return req.Query["fileName"]
}

func sizeParam(req Request, name string) (int64, error) {
	raw := req.Query[name]
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", depot.ErrInvalidArgument, name)
	}

	return n, nil
}

// errorResponse maps err onto a status code and error code and logs it.
func errorResponse(ctx context.Context, key route, err error) Response {
	code, errCode := classify(err)

	attrs := []any{"method", key.method, "action", key.action, "status", code, "error", err}
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", attrs...)
	} else {
		slog.WarnContext(ctx, "request rejected", attrs...)
	}

	return writeError(code, errCode, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, depot.ErrInvalidArgument):
		return http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, depot.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, depot.ErrPermissionDenied):
		return http.StatusInternalServerError, CodePermissionDenied
	case errors.Is(err, depot.ErrBackendUnavailable):
		return http.StatusInternalServerError, CodeBackendUnavailable
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

func writeError(code int, errCode, message string) Response {
	return writeJSON(code, ErrorResponse{Error: errCode, Message: message})
}

func writeJSON(code int, data any) Response {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		code = http.StatusInternalServerError
		body = []byte(`{"error":"internal_error","message":"failed to encode response"}`)
	}

	return Response{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
