// Package client fetches parameters from a deployed parameters function.
//
// The target is either a function name or a function URL:
//
//	lambda://parameters            invoke the function directly
//	https://abc.lambda-url.us-east-1.on.aws/
//
// lambda:// targets send a direct payload unless Envelope is set, in which
// case the request is wrapped the way a function URL would wrap it.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/brendan.keane/paramfn/internal/awsconfig"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/rs/zerolog"
)

// LambdaInvoker is the subset of the Lambda API the client needs.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	Target     string
	Token      string
	Base64Body bool
	Envelope   bool
	AWSConfig  *aws.Config // loaded with awsconfig defaults when nil
	Logger     zerolog.Logger
	Timeout    time.Duration
}

// Result is the function's answer.
type Result struct {
	StatusCode int
	Body       string
}

// Client talks to a parameters function.
type Client struct {
	opts   Options
	target *url.URL
	http   HTTPDoer
	lambda LambdaInvoker
	logger zerolog.Logger
}

// New creates a client for opts.Target.
func New(ctx context.Context, opts Options) (*Client, error) {
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}

	if target.Scheme != "lambda" {
		return newClient(opts, target, &http.Client{}, nil), nil
	}

	cfg := opts.AWSConfig
	if cfg == nil {
		loaded, err := awsconfig.Load(ctx, awsconfig.Options{Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		cfg = &loaded
	}
	return newClient(opts, target, nil, lambda.NewFromConfig(*cfg)), nil
}

// NewWithDependencies creates a client with injected transports.
func NewWithDependencies(opts Options, doer HTTPDoer, invoker LambdaInvoker) (*Client, error) {
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	if target.Scheme == "lambda" && invoker == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "lambda target needs a lambda invoker").
			WithContext("key", "PARAMFN_TARGET")
	}
	if target.Scheme != "lambda" && doer == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "http target needs an http client").
			WithContext("key", "PARAMFN_TARGET")
	}
	return newClient(opts, target, doer, invoker), nil
}

func newClient(opts Options, target *url.URL, doer HTTPDoer, invoker LambdaInvoker) *Client {
	return &Client{
		opts:   opts,
		target: target,
		http:   doer,
		lambda: invoker,
		logger: opts.Logger.With().Str("component", "client").Str("target", target.String()).Logger(),
	}
}

// ParseTarget validates a lambda://, http:// or https:// target.
func ParseTarget(target string) (*url.URL, error) {
	if target == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "target is required").
			WithContext("key", "PARAMFN_TARGET")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid target").
			WithContext("key", "PARAMFN_TARGET")
	}
	switch u.Scheme {
	case "lambda", "http", "https":
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported target scheme %q", u.Scheme).
			WithContext("key", "PARAMFN_TARGET")
	}
	if u.Host == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "target is missing a function name or host").
			WithContext("key", "PARAMFN_TARGET")
	}
	return u, nil
}

// GetParameter asks the function for a parameter. A non-200 answer is not an
// error; it is returned in Result.
func (c *Client) GetParameter(ctx context.Context, name string) (*Result, error) {
	if name == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "parameter name is required").
			WithContext("field", "name")
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]string{"parameter": name})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "encoding request")
	}

	log := c.logger.With().Str("parameter", name).Logger()
	start := time.Now()

	var result *Result
	switch {
	case c.target.Scheme == "lambda" && !c.opts.Envelope:
		log.Debug().Msg("direct invoke")
		result, err = c.invoke(ctx, body)
	case c.target.Scheme == "lambda":
		log.Debug().Bool("base64", c.opts.Base64Body).Msg("envelope invoke")
		result, err = c.invokeEnvelope(ctx, body)
	default:
		log.Debug().Bool("base64", c.opts.Base64Body).Msg("function url request")
		result, err = c.post(ctx, body)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Int("status", result.StatusCode).Dur("duration", time.Since(start)).Msg("parameter response")
	return result, nil
}

// Value returns the parameter value, or an error typed by the answer's
// status when the function did not answer 200.
func (c *Client) Value(ctx context.Context, name string) (string, error) {
	result, err := c.GetParameter(ctx, name)
	if err != nil {
		return "", err
	}
	if result.StatusCode != http.StatusOK {
		return "", errors.Newf(typeForStatus(result.StatusCode), "%s answered %d: %s", c.opts.Target, result.StatusCode, result.Body).
			WithContext("status", result.StatusCode).
			WithContext("target", c.opts.Target).
			WithContext("parameter", name)
	}
	return result.Body, nil
}

// Field extracts one field of a JSON object value, e.g. "uri" from the
// mongodb parameter. Non-string fields are returned as JSON.
func Field(value, field string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(value), &obj); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "parameter value is not a JSON object").
			WithContext("field", field)
	}
	raw, found := obj[field]
	if !found {
		return "", errors.Newf(errors.ErrorTypeValidation, "field %q not found", field).
			WithContext("field", field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(raw), nil
}

func typeForStatus(status int) errors.ErrorType {
	switch status {
	case http.StatusForbidden, http.StatusUnauthorized:
		return errors.ErrorTypeAuth
	case http.StatusBadRequest:
		return errors.ErrorTypeValidation
	default:
		return errors.ErrorTypeNetwork
	}
}

// newRequest builds the function URL request for a JSON body.
func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	contentType := "application/json"
	if c.opts.Base64Body {
		body = []byte(base64.StdEncoding.EncodeToString(body))
		contentType = "text/plain"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "building request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "paramfn")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	return req, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*Result, error) {
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "request failed").
			WithContext("target", c.opts.Target)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "reading response").
			WithContext("target", c.opts.Target)
	}

	return &Result{StatusCode: resp.StatusCode, Body: string(b)}, nil
}

func (c *Client) invokeEnvelope(ctx context.Context, body []byte) (*Result, error) {
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	event, err := requestToEvent(req, c.opts.Base64Body)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "encoding envelope")
	}
	return c.invoke(ctx, payload)
}

func (c *Client) invoke(ctx context.Context, payload []byte) (*Result, error) {
	output, err := c.lambda.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.target.Host),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "invoke failed").
			WithContext("target", c.opts.Target)
	}
	if output.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "invoke status %d", output.StatusCode).
			WithContext("target", c.opts.Target)
	}
	if output.FunctionError != nil {
		return nil, errors.Newf(errors.ErrorTypeInternal, "function error %s: %s", *output.FunctionError, output.Payload).
			WithContext("target", c.opts.Target)
	}
	return decodeResult(output.Payload)
}

// decodeResult reads the {statusCode, body} answer.
func decodeResult(payload []byte) (*Result, error) {
	var resp events.LambdaFunctionURLResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeProtocol, "decoding function answer")
	}
	if resp.StatusCode == 0 {
		return nil, errors.Newf(errors.ErrorTypeProtocol, "function answer has no statusCode: %s", payload)
	}

	body := resp.Body
	if resp.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeProtocol, "decoding base64 answer body")
		}
		body = string(b)
	}
	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}
