package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brendan.keane/paramfn/internal/config"
	"github.com/brendan.keane/paramfn/internal/handler"
	"github.com/brendan.keane/paramfn/internal/store"
	"github.com/brendan.keane/paramfn/internal/testutil"
	"github.com/brendan.keane/paramfn/internal/urlgateway"
	"github.com/brendan.keane/paramfn/pkg/client"
	"github.com/rs/zerolog"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvTarget, config.EnvToken, config.EnvTimeout, config.EnvRoleArn, config.EnvRoleExternalID, config.EnvEndpointURL, config.EnvMCPDesc, config.EnvLogFormat, config.EnvLogLevel} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvSecret, testutil.TestSecret)
}

// lambdaFactory answers lambda:// targets with the in-process function.
func lambdaFactory(t *testing.T) ClientFactory {
	t.Helper()
	fn, err := handler.New(handler.Options{Secret: testutil.TestSecret, Store: store.Default(), Logger: zerolog.Nop()})
	testutil.AssertNoError(t, err, "handler.New")

	return func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Getter, error) {
		return client.NewWithDependencies(client.Options{
			Target:     cfg.Client.Target,
			Token:      cfg.Client.Token,
			Base64Body: cfg.Client.Base64Body,
			Envelope:   cfg.Client.Envelope,
			Logger:     logger,
		}, nil, testutil.NewMockLambdaInvoker(fn.InvokeRaw))
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)

	root := newRootCommand(lambdaFactory(t))
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantErr  bool
		contains bool
	}{
		{
			name:    "direct",
			args:    []string{"get", "mongodb", "--target", "lambda://parameters"},
			wantOut: testutil.MongoDBBody + "\n",
		},
		{
			name:    "field",
			args:    []string{"get", "mongodb", "--target", "lambda://parameters", "--field", "uri"},
			wantOut: "mongodb://localhost:27017/?retryWrites=false\n",
		},
		{
			name:    "envelope with base64",
			args:    []string{"get", "mongodb", "--target", "lambda://parameters", "--envelope", "--base64", "--bearer", testutil.TestSecret},
			wantOut: testutil.MongoDBBody + "\n",
		},
		{
			name:    "envelope wrong token",
			args:    []string{"get", "mongodb", "--target", "lambda://parameters", "--envelope", "--bearer", "wrongtoken"},
			wantOut: handler.BodyForbidden + "\n",
			wantErr: true,
		},
		{
			name:    "unknown parameter",
			args:    []string{"get", "postgres", "--target", "lambda://parameters"},
			wantOut: handler.BodyBadRequest + "\n",
			wantErr: true,
		},
		{
			name:     "include status",
			args:     []string{"get", "mongodb", "--target", "lambda://parameters", "-i"},
			wantOut:  " OK\n\n" + testutil.MongoDBBody,
			contains: true,
		},
		{
			name:    "missing target",
			args:    []string{"get", "mongodb"},
			wantErr: true,
		},
		{
			name:    "bad target scheme",
			args:    []string{"get", "mongodb", "--target", "ftp://parameters"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.contains {
				testutil.AssertStringContains(t, out, tt.wantOut, "output")
			} else if tt.wantOut != "" {
				testutil.AssertStringEqual(t, out, tt.wantOut, "output")
			}
		})
	}
}

func TestGetCommand_TargetFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvTarget, "lambda://parameters")

	root := newRootCommand(lambdaFactory(t))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"get", "mongodb"})

	testutil.AssertNoError(t, root.Execute(), "Execute")
	testutil.AssertStringEqual(t, out.String(), testutil.MongoDBBody+"\n", "output")
}

func TestGetCommand_AWSOverrides(t *testing.T) {
	clearEnv(t)

	var seen *config.Config
	inner := lambdaFactory(t)
	root := newRootCommand(func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Getter, error) {
		seen = cfg
		return inner(ctx, cfg, logger)
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"get", "mongodb", "--target", "lambda://parameters",
		"--endpoint-url", "http://localhost:4566",
		"--role-arn", "arn:aws:iam::123456789012:role/reader",
		"--role-external-id", "ext-123"})

	testutil.AssertNoError(t, root.Execute(), "get")
	if seen == nil {
		t.Fatal("factory was not called")
	}

	opts := awsOptions(seen, zerolog.Nop())
	testutil.AssertStringEqual(t, opts.EndpointURL, "http://localhost:4566", "endpoint url")
	testutil.AssertStringEqual(t, opts.RoleArn, "arn:aws:iam::123456789012:role/reader", "role arn")
	testutil.AssertStringEqual(t, opts.RoleExternalID, "ext-123", "external id")
}

func TestGetCommand_DebugLogsFailureDetail(t *testing.T) {
	clearEnv(t)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	root := newRootCommand(func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Getter, error) {
		invoker := &testutil.MockLambdaInvoker{Error: stderrors.New("no credentials")}
		return client.NewWithDependencies(client.Options{Target: cfg.Client.Target, Logger: logger}, nil, invoker)
	})
	var errOut bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&errOut)
	root.SetArgs([]string{"get", "mongodb", "--target", "lambda://parameters", "--debug", "--log-format", "json"})

	testutil.AssertError(t, root.Execute(), "get with failing invoker")
	testutil.AssertStringContains(t, errOut.String(), `"message":"get failed"`, "debug log")
	testutil.AssertStringContains(t, errOut.String(), `"type":"network"`, "debug log")
	testutil.AssertStringContains(t, errOut.String(), `"cause":"no credentials"`, "debug log")
}

func TestInvokeCommand(t *testing.T) {
	t.Run("stdin envelope", func(t *testing.T) {
		event := testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBase64Body(testutil.MongoDBRequest).Build()
		out, err := run(t, string(event), "invoke")
		testutil.AssertNoError(t, err, "invoke")
		testutil.AssertStringContains(t, out, `"statusCode":200`, "output")
	})

	t.Run("direct", func(t *testing.T) {
		out, err := run(t, testutil.MongoDBRequest, "invoke")
		testutil.AssertNoError(t, err, "invoke")
		testutil.AssertStringContains(t, out, `mongodb://localhost:27017`, "output")
	})

	t.Run("event file with custom secret", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "event.json")
		event := testutil.NewEnvelope().WithBearer(testutil.TestSecret).WithBody(testutil.MongoDBRequest).Build()
		testutil.AssertNoError(t, os.WriteFile(path, event, 0o600), "write event")

		out, err := run(t, "", "invoke", "--event", path, "--secret", "other")
		testutil.AssertNoError(t, err, "invoke")
		testutil.AssertStringContains(t, out, `"statusCode":403`, "output")
	})

	t.Run("missing event file", func(t *testing.T) {
		_, err := run(t, "", "invoke", "--event", filepath.Join(t.TempDir(), "nope.json"))
		testutil.AssertError(t, err, "missing event file")
	})
}

func TestDocsCommand(t *testing.T) {
	out, err := run(t, "", "docs", "--raw")
	testutil.AssertNoError(t, err, "docs --raw")
	if !strings.HasPrefix(out, "openapi:") {
		t.Errorf("raw docs start with %q", out[:min(len(out), 20)])
	}

	out, err = run(t, "", "docs")
	testutil.AssertNoError(t, err, "docs")
	testutil.AssertStringContains(t, out, "POST", "rendered docs")
}

func TestCompletionCommand(t *testing.T) {
	out, err := run(t, "", "completion", "bash")
	testutil.AssertNoError(t, err, "completion bash")
	testutil.AssertStringContains(t, out, "paramfn", "completion script")
}

func TestServeHandler_Run(t *testing.T) {
	fn, err := handler.New(handler.Options{Secret: testutil.TestSecret, Store: store.Default(), Logger: zerolog.Nop()})
	testutil.AssertNoError(t, err, "handler.New")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err, "listen")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServeHandler(zerolog.Nop()).Run(ctx, ln, urlgateway.InvokerFunc(fn.InvokeRaw))
	}()

	c, err := client.New(context.Background(), client.Options{
		Target: "http://" + ln.Addr().String(),
		Token:  testutil.TestSecret,
	})
	testutil.AssertNoError(t, err, "client.New")

	result, err := c.GetParameter(context.Background(), "mongodb")
	testutil.AssertNoError(t, err, "GetParameter")
	testutil.AssertEqual(t, result.StatusCode, http.StatusOK, "status")
	testutil.AssertStringEqual(t, result.Body, testutil.MongoDBBody, "body")

	cancel()
	select {
	case err := <-done:
		testutil.AssertNoError(t, err, "Run")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMCPHandler_Build(t *testing.T) {
	clearEnv(t)

	t.Run("local", func(t *testing.T) {
		cmd := newRootCommand(lambdaFactory(t))
		cfg := testutil.NewConfigBuilder().WithMCPLocal().Build()
		cmd.SetContext(config.WithConfig(context.Background(), cfg))

		srv, err := NewMCPHandler(zerolog.Nop(), lambdaFactory(t)).build(cmd)
		testutil.AssertNoError(t, err, "build local")
		if srv == nil {
			t.Fatal("build returned nil server")
		}
	})

	t.Run("remote", func(t *testing.T) {
		cmd := newRootCommand(lambdaFactory(t))
		cfg := testutil.NewConfigBuilder().WithTarget("lambda://parameters").Build()
		cmd.SetContext(config.WithConfig(context.Background(), cfg))

		_, err := NewMCPHandler(zerolog.Nop(), lambdaFactory(t)).build(cmd)
		testutil.AssertNoError(t, err, "build remote")
	})

	t.Run("remote without target", func(t *testing.T) {
		cmd := newRootCommand(lambdaFactory(t))
		cmd.SetContext(config.WithConfig(context.Background(), testutil.NewConfigBuilder().Build()))

		_, err := NewMCPHandler(zerolog.Nop(), lambdaFactory(t)).build(cmd)
		testutil.AssertError(t, err, "build without target")
	})
}

func TestLocalLookup(t *testing.T) {
	fn, err := newLocalHandler(testutil.NewConfigBuilder().Build(), zerolog.Nop())
	testutil.AssertNoError(t, err, "newLocalHandler")

	l := localLookup{h: fn}
	v, err := l.Value(context.Background(), "mongodb")
	testutil.AssertNoError(t, err, "Value")
	testutil.AssertStringEqual(t, v, testutil.MongoDBBody, "value")
	testutil.AssertSliceEqual(t, l.Names(), []string{"mongodb"}, "Names")
}
