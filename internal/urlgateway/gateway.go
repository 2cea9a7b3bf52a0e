// Package urlgateway serves a function over plain HTTP the way a Lambda
// function URL does: each request becomes a function URL envelope, and the
// function's {statusCode, body} answer becomes the HTTP response.
package urlgateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxBodySize matches the synchronous invoke payload limit.
const MaxBodySize = 6 << 20

// Invoker runs the function on a raw payload and returns its raw output.
type Invoker interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, payload []byte) ([]byte, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// Gateway is an http.Handler in front of an Invoker.
type Gateway struct {
	invoker Invoker
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a Gateway.
func New(invoker Invoker, logger zerolog.Logger) *Gateway {
	return &Gateway{
		invoker: invoker,
		logger:  logger.With().Str("component", "urlgateway").Logger(),
		now:     time.Now,
	}
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := g.now()

	event, err := g.buildEvent(r)
	if err != nil {
		status := http.StatusBadRequest
		if _, tooLarge := err.(*http.MaxBytesError); tooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		g.logger.Warn().Err(err).Int("status", status).Msg("could not read request")
		http.Error(w, http.StatusText(status), status)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		g.logger.Error().Err(err).Msg("marshal envelope")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	out, err := g.invoker.Invoke(r.Context(), payload)
	if err != nil {
		g.logger.Error().Err(err).Str("request_id", event.RequestContext.RequestID).Msg("invoke failed")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	resp, err := decodeResponse(out)
	if err != nil {
		g.logger.Error().Err(err).Str("request_id", event.RequestContext.RequestID).Msg("bad function response")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	if err := writeResponse(w, resp); err != nil {
		g.logger.Warn().Err(err).Msg("write response")
	}

	g.logger.Debug().
		Str("request_id", event.RequestContext.RequestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", g.now().Sub(start)).
		Msg("request served")
}

// buildEvent converts an HTTP request to a function URL envelope.
func (g *Gateway) buildEvent(r *http.Request) (*events.LambdaFunctionURLRequest, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxBodySize))
		if err != nil {
			return nil, err
		}
		body = b
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ",")
	}
	if r.Host != "" {
		headers["host"] = r.Host
	}

	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		query[key] = strings.Join(values, ",")
	}

	var cookies []string
	for _, c := range r.Cookies() {
		cookies = append(cookies, c.String())
	}

	now := g.now()
	bodyString := string(body)
	isBase64 := false
	if len(body) > 0 && !isTextual(r.Header.Get("Content-Type")) {
		bodyString = base64.StdEncoding.EncodeToString(body)
		isBase64 = true
	}

	return &events.LambdaFunctionURLRequest{
		Version:               "2.0",
		RawPath:               r.URL.Path,
		RawQueryString:        r.URL.RawQuery,
		Cookies:               cookies,
		Headers:               headers,
		QueryStringParameters: query,
		RequestContext: events.LambdaFunctionURLRequestContext{
			AccountID:    "123456789012",
			RequestID:    uuid.NewString(),
			APIID:        "urlgateway",
			DomainName:   r.Host,
			DomainPrefix: "urlgateway",
			Time:         now.Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch:    now.UnixMilli(),
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  sourceIP(r.RemoteAddr),
				UserAgent: r.UserAgent(),
			},
		},
		Body:            bodyString,
		IsBase64Encoded: isBase64,
	}, nil
}

// decodeResponse reads the function's answer.
func decodeResponse(out []byte) (*events.LambdaFunctionURLResponse, error) {
	var resp events.LambdaFunctionURLResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("decoding function response: %w", err)
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	return &resp, nil
}

func writeResponse(w http.ResponseWriter, resp *events.LambdaFunctionURLResponse) error {
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return fmt.Errorf("decoding base64 response body: %w", err)
		}
		body = b
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	for _, c := range resp.Cookies {
		w.Header().Add("Set-Cookie", c)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(resp.StatusCode)
	_, err := w.Write(body)
	return err
}

// isTextual reports whether a content type is delivered to the function as
// plain text rather than base64.
func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/json",
		mediaType == "application/xml",
		mediaType == "application/javascript",
		mediaType == "application/x-www-form-urlencoded",
		strings.HasSuffix(mediaType, "+json"),
		strings.HasSuffix(mediaType, "+xml"):
		return true
	}
	return false
}

func sourceIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
