// Package handler implements the parameter lookup function.
//
// The function accepts two payload shapes. A direct invocation carries the
// request itself:
//
//	{"parameter": "mongodb"}
//
// A function URL invocation wraps it in an HTTP envelope, and the bearer token
// in the authorization header must match the configured secret:
//
//	{"headers": {"authorization": "Bearer secret"}, "body": "{\"parameter\":\"mongodb\"}"}
//
// The envelope body may be base64-encoded.
package handler

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/brendan.keane/paramfn/internal/logger"
	"github.com/brendan.keane/paramfn/internal/store"
	"github.com/rs/zerolog"
)

// Response bodies for the non-200 answers.
const (
	BodyForbidden  = "forbidden"
	BodyBadRequest = "bad request"
	BodyInternal   = "internal server error"
)

// Response is what the function returns to its caller.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Options configures a Handler.
type Options struct {
	Secret string
	Store  *store.Store
	Logger zerolog.Logger
}

// Handler resolves parameter requests. It holds no mutable state.
type Handler struct {
	secret []byte
	store  *store.Store
	logger zerolog.Logger
}

// New creates a Handler.
func New(opts Options) (*Handler, error) {
	if opts.Secret == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "shared secret must not be empty").
			WithContext("key", "PARAMFN_SECRET")
	}
	if opts.Store == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "parameter store is required")
	}
	return &Handler{
		secret: []byte(opts.Secret),
		store:  opts.Store,
		logger: logger.ForComponent(opts.Logger, "handler"),
	}, nil
}

// Invoke is the Lambda entry point. Every anticipated failure is answered with
// a 403 or 400 Response and a nil error.
func (h *Handler) Invoke(ctx context.Context, payload json.RawMessage) (Response, error) {
	log := logger.ForRequest(h.logger, requestID(ctx))

	value, err := h.handle(log, payload)
	if err != nil {
		resp := responseFor(err)
		log.Info().
			Int("status", resp.StatusCode).
			Str("reason", errors.GetReason(err)).
			Msg(err.Error())
		return resp, nil
	}

	log.Info().Int("status", http.StatusOK).Msg("parameter resolved")
	return Response{StatusCode: http.StatusOK, Body: value}, nil
}

// Resolve looks up a single parameter by name, bypassing authorization. It is
// meant for in-process callers such as the CLI.
func (h *Handler) Resolve(ctx context.Context, name string) (string, error) {
	log := logger.ForRequest(h.logger, requestID(ctx))
	log.Debug().Str("parameter", name).Msg("resolve")
	return h.lookup(log, name)
}

// Names lists the parameters the handler can resolve.
func (h *Handler) Names() []string {
	return h.store.Names()
}

func (h *Handler) handle(log zerolog.Logger, payload json.RawMessage) (string, error) {
	var event map[string]json.RawMessage
	if err := json.Unmarshal(payload, &event); err != nil || event == nil {
		log.Warn().Int("payload_size", len(payload)).Msg("payload is not a JSON object")
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "payload is not a JSON object").
			WithReason(errors.ReasonPayloadMalformed)
	}

	log.Debug().Interface("event", redact(event)).Msg("payload received")

	rawHeaders, found := event["headers"]
	if !found || isNull(rawHeaders) {
		log.Debug().Msg("direct invocation")
		return h.resolveRequest(log, event)
	}

	log.Debug().Msg("function url invocation")

	if err := h.authorize(log, rawHeaders); err != nil {
		return "", err
	}

	request, err := parseBody(log, event["body"])
	if err != nil {
		return "", err
	}

	return h.resolveRequest(log, request)
}

func (h *Handler) authorize(log zerolog.Logger, rawHeaders json.RawMessage) error {
	var headers map[string]interface{}
	if err := json.Unmarshal(rawHeaders, &headers); err != nil {
		log.Warn().Err(err).Msg("headers is not an object")
	}

	auth, ok := headers["authorization"].(string)
	if !ok {
		log.Warn().Msg("missing header authorization")
		return errors.New(errors.ErrorTypeAuth, "missing header authorization").
			WithReason(errors.ReasonAuthMissing)
	}

	_, token, ok := splitAuthorization(auth)
	if !ok {
		log.Warn().Msg("missing token in header authorization")
		return errors.New(errors.ErrorTypeAuth, "missing token in header authorization").
			WithReason(errors.ReasonAuthMalformed)
	}

	if subtle.ConstantTimeCompare([]byte(token), h.secret) != 1 {
		log.Warn().Msg("invalid token in header authorization")
		return errors.New(errors.ErrorTypeAuth, "invalid token in header authorization").
			WithReason(errors.ReasonAuthInvalid)
	}

	return nil
}

func (h *Handler) resolveRequest(log zerolog.Logger, request map[string]json.RawMessage) (string, error) {
	var param interface{}
	if raw, found := request["parameter"]; found {
		if err := json.Unmarshal(raw, &param); err != nil {
			param = nil
		}
	}

	log.Debug().Interface("parameter", param).Msg("parameter extracted")

	if param == nil {
		log.Warn().Msg("missing parameter")
		return "", errors.New(errors.ErrorTypeValidation, "missing parameter").
			WithReason(errors.ReasonParameterMissing)
	}

	name, ok := param.(string)
	if !ok {
		log.Warn().Interface("parameter", param).Msg("parameter not found")
		return "", errors.New(errors.ErrorTypeValidation, "parameter is not a string").
			WithReason(errors.ReasonParameterUnrecognized)
	}

	return h.lookup(log, name)
}

func (h *Handler) lookup(log zerolog.Logger, name string) (string, error) {
	value, found := h.store.Lookup(name)
	if !found {
		log.Warn().Str("parameter", name).Msg("parameter not found")
		return "", errors.Newf(errors.ErrorTypeValidation, "parameter not found: %s", name).
			WithReason(errors.ReasonParameterUnrecognized).
			WithContext("parameter", name)
	}
	return value, nil
}

// responseFor converts a handler error into the function's answer.
func responseFor(err error) Response {
	switch status := errors.StatusCode(err); status {
	case http.StatusForbidden:
		return Response{StatusCode: status, Body: BodyForbidden}
	case http.StatusBadRequest:
		return Response{StatusCode: status, Body: BodyBadRequest}
	default:
		return Response{StatusCode: http.StatusInternalServerError, Body: BodyInternal}
	}
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
