// Package testutil provides shared testing utilities and fixtures
package testutil

import (
	"encoding/base64"
	"encoding/json"
)

const (
	// TestSecret is the shared secret the fixtures authenticate with.
	TestSecret = "secret"

	// MongoDBBody is the answer for the mongodb parameter.
	MongoDBBody = `{"uri": "mongodb://localhost:27017/?retryWrites=false"}`

	// MongoDBRequest is a plain JSON request body for the mongodb parameter.
	MongoDBRequest = `{"parameter":"mongodb"}`
)

// DirectPayload returns a direct invocation payload asking for parameter.
func DirectPayload(parameter string) []byte {
	b, _ := json.Marshal(map[string]string{"parameter": parameter})
	return b
}

// Base64 encodes s with the standard alphabet.
func Base64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// EnvelopeBuilder builds function URL envelope payloads.
type EnvelopeBuilder struct {
	headers map[string]interface{}
	body    interface{}
	hasBody bool
	extra   map[string]interface{}
}

// NewEnvelope starts an envelope with an empty header set and no body.
func NewEnvelope() *EnvelopeBuilder {
	return &EnvelopeBuilder{
		headers: map[string]interface{}{},
		extra:   map[string]interface{}{},
	}
}

// WithHeader sets a header verbatim.
func (b *EnvelopeBuilder) WithHeader(name string, value interface{}) *EnvelopeBuilder {
	b.headers[name] = value
	return b
}

// WithAuthorization sets the authorization header.
func (b *EnvelopeBuilder) WithAuthorization(value string) *EnvelopeBuilder {
	return b.WithHeader("authorization", value)
}

// WithBearer sets "authorization: Bearer <token>".
func (b *EnvelopeBuilder) WithBearer(token string) *EnvelopeBuilder {
	return b.WithAuthorization("Bearer " + token)
}

// WithBody sets the body field.
func (b *EnvelopeBuilder) WithBody(body interface{}) *EnvelopeBuilder {
	b.body = body
	b.hasBody = true
	return b
}

// WithBase64Body sets the body to the base64 encoding of body.
func (b *EnvelopeBuilder) WithBase64Body(body string) *EnvelopeBuilder {
	b.extra["isBase64Encoded"] = true
	return b.WithBody(Base64(body))
}

// WithField sets an arbitrary top level field.
func (b *EnvelopeBuilder) WithField(name string, value interface{}) *EnvelopeBuilder {
	b.extra[name] = value
	return b
}

// Build marshals the envelope.
func (b *EnvelopeBuilder) Build() []byte {
	event := map[string]interface{}{"headers": b.headers}
	if b.hasBody {
		event["body"] = b.body
	}
	for k, v := range b.extra {
		event[k] = v
	}
	data, _ := json.Marshal(event)
	return data
}
