package lambda_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sagarc03/depot/lambda"
	"github.com/sagarc03/depot/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDispatcher is a mock implementation of lambda.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Handle(ctx context.Context, req router.Request) router.Response {
	args := m.Called(ctx, req)
	return args.Get(0).(router.Response)
}

var uploaded = router.Response{
	StatusCode: http.StatusOK,
	Headers:    map[string]string{"Content-Type": "application/json"},
	Body:       `{"message":"file uploaded","fileId":"a.jpg"}`,
}

func TestHandleProxy(t *testing.T) {
	dispatcher := new(MockDispatcher)
	h := lambda.NewHandler(dispatcher)

	dispatcher.On("Handle", mock.Anything, router.Request{
		Method: "POST",
		Query:  map[string]string{"action": "upload", "fileName": "a.jpg"},
		Body:   "WFg=",
	}).Return(uploaded)

	resp, err := h.HandleProxy(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            "POST",
		QueryStringParameters: map[string]string{"action": "upload", "fileName": "a.jpg"},
		Body:                  "WFg=",
		IsBase64Encoded:       true,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, uploaded.Body, resp.Body)
	dispatcher.AssertExpectations(t)
}

func TestHandleProxy_NoQueryString(t *testing.T) {
	dispatcher := new(MockDispatcher)
	h := lambda.NewHandler(dispatcher)

	dispatcher.On("Handle", mock.Anything, mock.MatchedBy(func(req router.Request) bool {
		return req.Query != nil && len(req.Query) == 0
	})).Return(router.Response{
		StatusCode: http.StatusBadRequest,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"error":"invalid_request","message":"unsupported method or action"}`,
	})

	resp, err := h.HandleProxy(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	dispatcher.AssertExpectations(t)
}

func TestHandleProxy_EventJSON(t *testing.T) {
	dispatcher := new(MockDispatcher)
	h := lambda.NewHandler(dispatcher)

	dispatcher.On("Handle", mock.Anything, router.Request{
		Method: "GET",
		Query:  map[string]string{"action": "download", "imageName": "a.jpg"},
	}).Return(uploaded)

	raw := `{
		"httpMethod": "GET",
		"path": "/files",
		"queryStringParameters": {"action": "download", "imageName": "a.jpg"},
		"body": null,
		"isBase64Encoded": false
	}`
	var event events.APIGatewayProxyRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	resp, err := h.HandleProxy(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"statusCode":200`)
	dispatcher.AssertExpectations(t)
}

func TestHandleHTTP(t *testing.T) {
	dispatcher := new(MockDispatcher)
	h := lambda.NewHandler(dispatcher)

	dispatcher.On("Handle", mock.Anything, router.Request{
		Method: "GET",
		Query:  map[string]string{"action": "delete", "imageName": "a.jpg"},
	}).Return(router.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"message":"file deleted","fileId":"a.jpg"}`,
	})

	event := events.APIGatewayV2HTTPRequest{
		QueryStringParameters: map[string]string{"action": "delete", "imageName": "a.jpg"},
	}
	event.RequestContext.HTTP.Method = "GET"

	resp, err := h.HandleHTTP(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"file deleted","fileId":"a.jpg"}`, resp.Body)
	dispatcher.AssertExpectations(t)
}
