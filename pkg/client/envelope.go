package client

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/google/uuid"
)

// requestToEvent converts a request to the envelope a function URL would
// deliver for it. Header names are lowercased, as function URLs do.
func requestToEvent(req *http.Request, isBase64 bool) (*events.LambdaFunctionURLRequest, error) {
	var body string
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "reading request body")
		}
		req.Body = io.NopCloser(bytes.NewReader(b))
		body = string(b)
	}

	headers := make(map[string]string, len(req.Header)+1)
	for key, values := range req.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ",")
	}
	headers["host"] = req.URL.Host

	now := time.Now()
	return &events.LambdaFunctionURLRequest{
		Version:        "2.0",
		RawPath:        "/",
		RawQueryString: req.URL.RawQuery,
		Headers:        headers,
		RequestContext: events.LambdaFunctionURLRequestContext{
			RequestID:    uuid.NewString(),
			APIID:        req.URL.Host,
			DomainPrefix: req.URL.Host,
			Time:         now.Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch:    now.UnixMilli(),
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method:    req.Method,
				Path:      "/",
				Protocol:  "HTTP/1.1",
				SourceIP:  "127.0.0.1",
				UserAgent: req.UserAgent(),
			},
		},
		Body:            body,
		IsBase64Encoded: isBase64,
	}, nil
}
