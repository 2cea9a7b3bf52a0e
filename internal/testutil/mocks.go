package testutil

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// MockHTTPClient records requests and answers with a canned response
type MockHTTPClient struct {
	Response *http.Response
	Error    error
	Requests []*http.Request
	Bodies   []string
}

// Do implements the client's HTTPDoer interface
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		m.Bodies = append(m.Bodies, string(b))
	} else {
		m.Bodies = append(m.Bodies, "")
	}
	return m.Response, m.Error
}

// NewMockHTTPClient creates a mock HTTP client with the given response and error
func NewMockHTTPClient(body string, statusCode int, headers map[string]string, err error) *MockHTTPClient {
	var resp *http.Response
	if err == nil {
		resp = &http.Response{
			StatusCode: statusCode,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}
		for key, value := range headers {
			resp.Header.Set(key, value)
		}
	}

	return &MockHTTPClient{
		Response: resp,
		Error:    err,
		Requests: make([]*http.Request, 0),
	}
}

// FunctionFunc stands in for a deployed function: it receives the invoke
// payload and returns the function's output.
type FunctionFunc func(ctx context.Context, payload []byte) ([]byte, error)

// MockLambdaInvoker implements the client's LambdaInvoker interface
type MockLambdaInvoker struct {
	Function      FunctionFunc
	Payload       []byte // returned when Function is nil
	StatusCode    int32
	FunctionError string
	Error         error
	Inputs        []*lambda.InvokeInput
}

// Invoke records the input and runs Function, if set.
func (m *MockLambdaInvoker) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	m.Inputs = append(m.Inputs, params)
	if m.Error != nil {
		return nil, m.Error
	}

	payload := m.Payload
	if m.Function != nil {
		out, err := m.Function(ctx, params.Payload)
		if err != nil {
			return nil, err
		}
		payload = out
	}

	status := m.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	output := &lambda.InvokeOutput{
		StatusCode: status,
		Payload:    payload,
	}
	if m.FunctionError != "" {
		output.FunctionError = aws.String(m.FunctionError)
	}
	return output, nil
}

// NewMockLambdaInvoker creates an invoker backed by fn.
func NewMockLambdaInvoker(fn FunctionFunc) *MockLambdaInvoker {
	return &MockLambdaInvoker{
		Function: fn,
		Inputs:   make([]*lambda.InvokeInput, 0),
	}
}
