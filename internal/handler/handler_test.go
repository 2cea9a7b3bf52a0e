package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/brendan.keane/paramfn/internal/store"
	"github.com/brendan.keane/paramfn/internal/testutil"
	"github.com/rs/zerolog"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := New(Options{
		Secret: testutil.TestSecret,
		Store:  store.Default(),
		Logger: zerolog.Nop(),
	})
	testutil.AssertNoError(t, err, "New")
	return h
}

func invoke(t *testing.T, h *Handler, payload []byte) Response {
	t.Helper()
	resp, err := h.Invoke(context.Background(), json.RawMessage(payload))
	testutil.AssertNoError(t, err, "Invoke must not fail")
	return resp
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{Store: store.Default()}); err == nil {
		t.Error("New should reject an empty secret")
	}
	if _, err := New(Options{Secret: "x"}); err == nil {
		t.Error("New should reject a nil store")
	}
}

func TestInvoke_Direct(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name     string
		payload  string
		wantCode int
		wantBody string
	}{
		{"mongodb", `{"parameter":"mongodb"}`, http.StatusOK, testutil.MongoDBBody},
		{"missing parameter", `{}`, http.StatusBadRequest, BodyBadRequest},
		{"null parameter", `{"parameter":null}`, http.StatusBadRequest, BodyBadRequest},
		{"unrecognized parameter", `{"parameter":"postgres"}`, http.StatusBadRequest, BodyBadRequest},
		{"non-string parameter", `{"parameter":42}`, http.StatusBadRequest, BodyBadRequest},
		{"case sensitive", `{"parameter":"MongoDB"}`, http.StatusBadRequest, BodyBadRequest},
		{"extra keys ignored", `{"parameter":"mongodb","other":true}`, http.StatusOK, testutil.MongoDBBody},
		{"null headers is direct", `{"headers":null,"parameter":"mongodb"}`, http.StatusOK, testutil.MongoDBBody},
		{"not an object", `"mongodb"`, http.StatusBadRequest, BodyBadRequest},
		{"null payload", `null`, http.StatusBadRequest, BodyBadRequest},
		{"garbage", `{{{`, http.StatusBadRequest, BodyBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := invoke(t, h, []byte(tt.payload))
			testutil.AssertEqual(t, resp.StatusCode, tt.wantCode, "status")
			testutil.AssertStringEqual(t, resp.Body, tt.wantBody, "body")
		})
	}
}

func TestInvoke_Envelope(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name     string
		payload  []byte
		wantCode int
		wantBody string
	}{
		{
			name:     "no authorization header",
			payload:  testutil.NewEnvelope().WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "capitalized header is not read",
			payload:  testutil.NewEnvelope().WithHeader("Authorization", "Bearer secret").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "non-string authorization",
			payload:  testutil.NewEnvelope().WithHeader("authorization", 7).WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "scheme only",
			payload:  testutil.NewEnvelope().WithAuthorization("Bearer").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "scheme and trailing spaces",
			payload:  testutil.NewEnvelope().WithAuthorization("Bearer   ").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "empty authorization",
			payload:  testutil.NewEnvelope().WithAuthorization("").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "wrong token",
			payload:  testutil.NewEnvelope().WithBearer("wrongtoken").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "token prefix only",
			payload:  testutil.NewEnvelope().WithBearer("secre").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
		{
			name:     "plain body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusOK,
			wantBody: testutil.MongoDBBody,
		},
		{
			name:     "base64 body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBase64Body(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusOK,
			wantBody: testutil.MongoDBBody,
		},
		{
			name:     "any scheme accepted",
			payload:  testutil.NewEnvelope().WithAuthorization("Token secret").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusOK,
			wantBody: testutil.MongoDBBody,
		},
		{
			name:     "leading whitespace and tab separator",
			payload:  testutil.NewEnvelope().WithAuthorization("  Bearer\tsecret").WithBody(testutil.MongoDBRequest).Build(),
			wantCode: http.StatusOK,
			wantBody: testutil.MongoDBBody,
		},
		{
			name:     "unknown parameter in body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(`{"parameter":"postgres"}`).Build(),
			wantCode: http.StatusBadRequest,
			wantBody: BodyBadRequest,
		},
		{
			name:     "missing parameter in body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(`{}`).Build(),
			wantCode: http.StatusBadRequest,
			wantBody: BodyBadRequest,
		},
		{
			name:     "malformed json body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(`{"parameter":`).Build(),
			wantCode: http.StatusBadRequest,
			wantBody: BodyBadRequest,
		},
		{
			name:     "json array body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(`["mongodb"]`).Build(),
			wantCode: http.StatusBadRequest,
			wantBody: BodyBadRequest,
		},
		{
			name:     "missing body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).Build(),
			wantCode: http.StatusBadRequest,
			wantBody: BodyBadRequest,
		},
		{
			name:     "non-string body",
			payload:  testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(map[string]string{"parameter": "mongodb"}).Build(),
			wantCode: http.StatusBadRequest,
			wantBody: BodyBadRequest,
		},
		{
			name:     "auth checked before body",
			payload:  testutil.NewEnvelope().WithBearer("nope").WithBody(`not json`).Build(),
			wantCode: http.StatusForbidden,
			wantBody: BodyForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := invoke(t, h, tt.payload)
			testutil.AssertEqual(t, resp.StatusCode, tt.wantCode, "status")
			testutil.AssertStringEqual(t, resp.Body, tt.wantBody, "body")
		})
	}
}

func TestInvoke_Base64RoundTrip(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{testutil.MongoDBRequest, `{"parameter":"postgres"}`, `{}`} {
		plain := invoke(t, h, testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(body).Build())
		encoded := invoke(t, h, testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBase64Body(body).Build())

		if plain != encoded {
			t.Errorf("body %s: plain=%+v encoded=%+v", body, plain, encoded)
		}
	}
}

func TestInvoke_CustomSecretAndStore(t *testing.T) {
	h, err := New(Options{
		Secret: "s3cr3t",
		Store:  store.New(map[string]string{"redis": `{"addr":"localhost:6379"}`}),
		Logger: zerolog.Nop(),
	})
	testutil.AssertNoError(t, err, "New")

	resp := invoke(t, h, testutil.NewEnvelope().WithBearer("secret").WithBody(`{"parameter":"redis"}`).Build())
	testutil.AssertEqual(t, resp.StatusCode, http.StatusForbidden, "default secret must not be accepted")

	resp = invoke(t, h, testutil.NewEnvelope().WithBearer("s3cr3t").WithBody(`{"parameter":"redis"}`).Build())
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "status")
	testutil.AssertStringEqual(t, resp.Body, `{"addr":"localhost:6379"}`, "body")

	resp = invoke(t, h, testutil.DirectPayload("mongodb"))
	testutil.AssertEqual(t, resp.StatusCode, http.StatusBadRequest, "mongodb is not in this store")
}

func TestInvoke_LogsRequestIDWithoutSecret(t *testing.T) {
	var buf bytes.Buffer
	h, err := New(Options{
		Secret: testutil.TestSecret,
		Store:  store.Default(),
		Logger: zerolog.New(&buf).Level(zerolog.DebugLevel),
	})
	testutil.AssertNoError(t, err, "New")

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-42"})
	payload := testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(testutil.MongoDBRequest).Build()

	resp, err := h.Invoke(ctx, payload)
	testutil.AssertNoError(t, err, "Invoke")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "status")

	out := buf.String()
	testutil.AssertStringContains(t, out, `"request_id":"req-42"`, "log output")
	testutil.AssertStringContains(t, out, "REDACTED", "log output")
	testutil.AssertStringNotContains(t, out, "Bearer secret", "log output")
}

func TestResponse_JSONShape(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.InvokeRaw(context.Background(), testutil.DirectPayload("mongodb"))
	testutil.AssertNoError(t, err, "InvokeRaw")

	var fields map[string]interface{}
	testutil.AssertNoError(t, json.Unmarshal(out, &fields), "unmarshal")

	testutil.AssertEqual(t, len(fields), 2, "response must only carry statusCode and body")
	testutil.AssertEqual(t, fields["statusCode"], float64(200), "statusCode")
	testutil.AssertEqual(t, fields["body"], testutil.MongoDBBody, "body")
}

func TestResolve(t *testing.T) {
	h := newTestHandler(t)

	v, err := h.Resolve(context.Background(), "mongodb")
	testutil.AssertNoError(t, err, "Resolve mongodb")
	testutil.AssertStringEqual(t, v, testutil.MongoDBBody, "value")

	_, err = h.Resolve(context.Background(), "postgres")
	testutil.AssertErrorContains(t, err, "parameter not found", "Resolve postgres")

	testutil.AssertSliceEqual(t, h.Names(), []string{"mongodb"}, "Names")
}
