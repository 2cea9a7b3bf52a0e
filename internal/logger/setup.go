package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level      string
	Format     string // "pretty" or "json"
	WithCaller bool
	Output     io.Writer
	TimeFormat string
	App        string
}

// DefaultConfig returns sensible defaults for the CLI
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "pretty",
		WithCaller: false,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
		App:        "paramfn",
	}
}

// LambdaConfig returns defaults for the function runtime: JSON lines on
// stdout, which the Lambda runtime ships to CloudWatch.
func LambdaConfig(level string) *Config {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Format = "json"
	cfg.Output = os.Stdout
	cfg.App = "parameters"
	return cfg
}

// InitLogger creates and configures a new zerolog logger
func InitLogger(config *Config) zerolog.Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}

	level := ParseLevel(config.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = config.TimeFormat

	var output io.Writer = config.Output
	if config.Format == "pretty" {
		output = &zerolog.ConsoleWriter{
			Out:        config.Output,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	app := config.App
	if app == "" {
		app = "paramfn"
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("app", app).
		Logger()

	if config.WithCaller {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// ParseLevel converts string level to zerolog.Level
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// CLIConfig returns the CLI logger configuration for the verbosity flags
func CLIConfig(verbose bool, debug bool, format string) *Config {
	config := DefaultConfig()
	if format != "" {
		config.Format = format
	}

	if debug {
		config.Level = "debug"
		config.WithCaller = true
	} else if verbose {
		config.Level = "info"
	} else {
		config.Level = "warn"
	}

	return config
}

// SetupFromFlags configures the CLI logger based on command flags
func SetupFromFlags(verbose bool, debug bool, format string) zerolog.Logger {
	return InitLogger(CLIConfig(verbose, debug, format))
}

// ForComponent creates a logger with component context
func ForComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// ForRequest creates a logger with invocation context
func ForRequest(logger zerolog.Logger, requestID string) zerolog.Logger {
	if requestID == "" {
		return logger
	}
	return logger.With().Str("request_id", requestID).Logger()
}

// ForTool creates a logger with MCP tool context
func ForTool(logger zerolog.Logger, tool string) zerolog.Logger {
	return logger.With().
		Str("mcp_tool", tool).
		Str("component", "mcp").
		Logger()
}
