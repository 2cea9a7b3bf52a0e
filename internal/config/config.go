package config

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/spf13/pflag"
)

// Environment variables read by LoadFromEnv.
const (
	EnvSecret         = "PARAMFN_SECRET"
	EnvLogLevel       = "PARAMFN_LOG_LEVEL"
	EnvLogFormat      = "PARAMFN_LOG_FORMAT"
	EnvTarget         = "PARAMFN_TARGET"
	EnvToken          = "PARAMFN_TOKEN"
	EnvTimeout        = "PARAMFN_TIMEOUT"
	EnvRegion         = "AWS_REGION"
	EnvRoleArn        = "PARAMFN_ROLE_ARN"
	EnvRoleExternalID = "PARAMFN_ROLE_EXTERNAL_ID"
	EnvEndpointURL    = "PARAMFN_ENDPOINT_URL"
	EnvMCPDesc        = "PARAMFN_MCP_DESCRIPTION"
	DefaultSecret     = "secret"
	DefaultAddr       = "127.0.0.1:8080"
	DefaultTimeout    = 30 * time.Second
)

// Config holds all application configuration
type Config struct {
	// Shared secret the function checks bearer tokens against
	Secret string

	Log    LogConfig
	Client ClientConfig
	Serve  ServeConfig
	MCP    MCPConfig
	Invoke InvokeConfig
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// ClientConfig holds settings for talking to a deployed function
type ClientConfig struct {
	Target         string // lambda://<function> or http(s)://<function url>
	Token          string
	Base64Body     bool
	Envelope       bool
	Field          string
	Region         string
	RoleArn        string
	RoleExternalID string
	EndpointURL    string // AWS endpoint override, e.g. LocalStack
	IncludeStatus  bool
	Timeout        time.Duration
}

// ServeConfig holds settings for the local function URL gateway
type ServeConfig struct {
	Addr string
}

// MCPConfig holds MCP-specific configuration
type MCPConfig struct {
	Description string // Tool description for LLM context
	Local       bool   // Serve from the built-in store instead of a target
}

// InvokeConfig holds settings for in-process invocation
type InvokeConfig struct {
	Event string // path to an event file, "-" or empty for stdin
}

// contextKey is a custom type for context keys
type contextKey string

// configKey is the context key for storing config
const configKey contextKey = "config"

// WithConfig adds config to context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		Secret: DefaultSecret,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			Timeout: DefaultTimeout,
		},
		Serve: ServeConfig{
			Addr: DefaultAddr,
		},
	}
}

// LoadFromEnv creates a Config from the environment
func LoadFromEnv() (*Config, error) {
	cfg := NewConfig()

	if v, ok := os.LookupEnv(EnvSecret); ok {
		cfg.Secret = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	cfg.Client.Target = os.Getenv(EnvTarget)
	cfg.Client.Token = os.Getenv(EnvToken)
	cfg.Client.Region = os.Getenv(EnvRegion)
	cfg.Client.RoleArn = os.Getenv(EnvRoleArn)
	cfg.Client.RoleExternalID = os.Getenv(EnvRoleExternalID)
	cfg.Client.EndpointURL = os.Getenv(EnvEndpointURL)
	cfg.MCP.Description = os.Getenv(EnvMCPDesc)

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid duration").
				WithContext("key", EnvTimeout)
		}
		cfg.Client.Timeout = d
	}

	return cfg, nil
}

// LoadFromFlags creates a Config from the environment overlaid with the
// command line flags that are defined on flags. A flag wins over the
// environment only when it was set explicitly.
func LoadFromFlags(flags *pflag.FlagSet) (*Config, error) {
	cfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"target", &cfg.Client.Target},
		{"bearer", &cfg.Client.Token},
		{"field", &cfg.Client.Field},
		{"region", &cfg.Client.Region},
		{"role-arn", &cfg.Client.RoleArn},
		{"role-external-id", &cfg.Client.RoleExternalID},
		{"endpoint-url", &cfg.Client.EndpointURL},
		{"addr", &cfg.Serve.Addr},
		{"mcp-desc", &cfg.MCP.Description},
		{"event", &cfg.Invoke.Event},
		{"secret", &cfg.Secret},
	} {
		if err := overlayString(flags, f.name, f.dst); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"base64", &cfg.Client.Base64Body},
		{"envelope", &cfg.Client.Envelope},
		{"include", &cfg.Client.IncludeStatus},
		{"local", &cfg.MCP.Local},
	} {
		if err := overlayBool(flags, f.name, f.dst); err != nil {
			return nil, err
		}
	}

	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		if cfg.Client.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get timeout flag")
		}
	}

	return cfg, nil
}

func overlayString(flags *pflag.FlagSet, name string, dst *string) error {
	if flags.Lookup(name) == nil {
		return nil
	}
	if !flags.Changed(name) && *dst != "" {
		return nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeConfig, "failed to get %s flag", name)
	}
	if v != "" || flags.Changed(name) {
		*dst = v
	}
	return nil
}

func overlayBool(flags *pflag.FlagSet, name string, dst *bool) error {
	if flags.Lookup(name) == nil {
		return nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeConfig, "failed to get %s flag", name)
	}
	*dst = v
	return nil
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New(errors.ErrorTypeConfig, "must not be empty").
			WithContext("key", EnvSecret)
	}

	switch c.Log.Format {
	case "json", "pretty":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown log format %q", c.Log.Format).
			WithContext("key", EnvLogFormat).
			WithContext("valid_formats", []string{"json", "pretty"})
	}

	if c.Client.Target != "" {
		u, err := url.Parse(c.Client.Target)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid target").
				WithContext("key", EnvTarget)
		}
		switch u.Scheme {
		case "lambda", "http", "https":
		default:
			return errors.Newf(errors.ErrorTypeConfig, "unsupported target scheme %q", u.Scheme).
				WithContext("key", EnvTarget).
				WithContext("suggestion", "use lambda://<function> or https://<function url>")
		}
	}

	if c.Client.EndpointURL != "" {
		u, err := url.Parse(c.Client.EndpointURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Newf(errors.ErrorTypeConfig, "invalid endpoint URL %q", c.Client.EndpointURL).
				WithContext("key", EnvEndpointURL)
		}
	}

	if c.Client.Timeout < 0 {
		return errors.New(errors.ErrorTypeConfig, "timeout must not be negative").
			WithContext("key", EnvTimeout)
	}

	return nil
}

// ValidateClient additionally requires a target
func (c *Config) ValidateClient() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Client.Target == "" {
		return errors.New(errors.ErrorTypeConfig, "target is required").
			WithContext("key", EnvTarget).
			WithContext("suggestion", "set PARAMFN_TARGET or use --target")
	}
	return nil
}
