// Package http exposes depot over HTTP.
//
// Action requests arrive on GET or POST with an "action" query parameter and
// are handed to a Dispatcher (normally a *router.Router) as a request
// envelope. The response envelope is written back verbatim, so the HTTP and
// Lambda transports produce identical bodies.
//
// # Routes
//
//	GET  /healthz              liveness probe
//	GET  /?action=...          download, list, delete
//	POST /?action=upload       upload, body is base64 text or raw bytes
//	GET  /files?action=...     alias of /
//	GET  /blobs/{key}          blob behind a presigned link (filesystem storage)
//
// An upload sent with Content-Type application/octet-stream is base64
// encoded before dispatch. Any other body is passed through and must
// already be base64.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    MaxUploadSize: 10 << 20,
//	    Blobs:         fsStore, // nil when blobs live in S3
//	    LinkVerifier:  signer,
//	}
//	handler := http.NewHandler(&handlerCfg, router.New(service))
//	http.ListenAndServe(":5708", handler.Router())
package http
