package testutil

import (
	"time"

	"github.com/brendan.keane/paramfn/internal/config"
)

// ConfigBuilder provides a fluent interface for building test configurations
type ConfigBuilder struct {
	config *config.Config
}

// NewConfigBuilder starts from config.NewConfig defaults with the test secret
func NewConfigBuilder() *ConfigBuilder {
	cfg := config.NewConfig()
	cfg.Secret = TestSecret
	cfg.Log.Format = "pretty"
	return &ConfigBuilder{config: cfg}
}

// WithTarget sets the client target
func (b *ConfigBuilder) WithTarget(target string) *ConfigBuilder {
	b.config.Client.Target = target
	return b
}

// WithToken sets the bearer token
func (b *ConfigBuilder) WithToken(token string) *ConfigBuilder {
	b.config.Client.Token = token
	return b
}

// WithSecret sets the shared secret
func (b *ConfigBuilder) WithSecret(secret string) *ConfigBuilder {
	b.config.Secret = secret
	return b
}

// WithBase64Body enables base64 request bodies
func (b *ConfigBuilder) WithBase64Body() *ConfigBuilder {
	b.config.Client.Base64Body = true
	return b
}

// WithEnvelope wraps lambda:// requests in a function URL envelope
func (b *ConfigBuilder) WithEnvelope() *ConfigBuilder {
	b.config.Client.Envelope = true
	return b
}

// WithField selects a field of the parameter value
func (b *ConfigBuilder) WithField(field string) *ConfigBuilder {
	b.config.Client.Field = field
	return b
}

// WithIncludeStatus prints the status line
func (b *ConfigBuilder) WithIncludeStatus() *ConfigBuilder {
	b.config.Client.IncludeStatus = true
	return b
}

// WithTimeout sets the client timeout
func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.config.Client.Timeout = d
	return b
}

// WithLogFormat sets the log format
func (b *ConfigBuilder) WithLogFormat(format string) *ConfigBuilder {
	b.config.Log.Format = format
	return b
}

// WithMCPLocal serves MCP from the built-in store
func (b *ConfigBuilder) WithMCPLocal() *ConfigBuilder {
	b.config.MCP.Local = true
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *config.Config {
	return b.config
}
