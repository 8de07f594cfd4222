// Package lambda adapts API Gateway proxy events to the depot router.
package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sagarc03/depot/router"
)

// Dispatcher turns a request envelope into a response envelope.
type Dispatcher interface {
	Handle(ctx context.Context, req router.Request) router.Response
}

// Handler serves API Gateway REST (v1) and HTTP API (v2) events.
type Handler struct {
	dispatcher Dispatcher
}

// NewHandler returns a Handler forwarding events to dispatcher.
func NewHandler(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// HandleProxy handles a REST API proxy integration event.
// Failures are reported in the response, the returned error is always nil.
func (h *Handler) HandleProxy(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := h.dispatcher.Handle(ctx, router.Request{
		Method: event.HTTPMethod,
		Query:  queryOrEmpty(event.QueryStringParameters),
		Body:   event.Body,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// HandleHTTP handles an HTTP API (payload format 2.0) event.
func (h *Handler) HandleHTTP(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp := h.dispatcher.Handle(ctx, router.Request{
		Method: event.RequestContext.HTTP.Method,
		Query:  queryOrEmpty(event.QueryStringParameters),
		Body:   event.Body,
	})

	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// API Gateway sends a null map when the request has no query string.
func queryOrEmpty(query map[string]string) map[string]string {
	if query == nil {
		return map[string]string{}
	}
	return query
}
