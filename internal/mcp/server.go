// Package mcp exposes parameter lookup to MCP clients over stdio.
package mcp

import (
	"context"
	"strings"

	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/brendan.keane/paramfn/internal/logger"
	"github.com/brendan.keane/paramfn/pkg/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

const (
	ServerName    = "paramfn"
	ServerVersion = "1.0.0"

	ToolGetParameter   = "get_parameter"
	ToolListParameters = "list_parameters"

	defaultDescription = "Look up a configuration parameter by name. The value is a JSON document."
)

// Lookup resolves a parameter to its value.
type Lookup interface {
	Value(ctx context.Context, name string) (string, error)
}

// Lister is implemented by lookups that know every parameter name.
type Lister interface {
	Names() []string
}

// Server wraps an MCP server with the parameter tools registered.
type Server struct {
	logger zerolog.Logger
	lookup Lookup
	mcp    *server.MCPServer
}

// NewServer creates a server. list_parameters is only registered when lookup
// is also a Lister.
func NewServer(log zerolog.Logger, lookup Lookup, description string) *Server {
	if description == "" {
		description = defaultDescription
	}

	s := &Server{
		logger: logger.ForComponent(log, "mcp_server"),
		lookup: lookup,
		mcp:    server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool(ToolGetParameter,
		mcp.WithDescription(description),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Parameter name, e.g. mongodb"),
		),
		mcp.WithString("field",
			mcp.Description("Return only this field of the JSON value, e.g. uri"),
		),
	), s.handleGetParameter)

	if _, ok := lookup.(Lister); ok {
		s.mcp.AddTool(mcp.NewTool(ToolListParameters,
			mcp.WithDescription("List the parameter names that can be looked up"),
		), s.handleListParameters)
	}

	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve runs the server on stdin/stdout until stdin closes.
func (s *Server) Serve() error {
	s.logger.Debug().Msg("MCP server started, reading from stdin")
	if err := server.ServeStdio(s.mcp); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MCP stdio server failed")
	}
	s.logger.Debug().Msg("MCP server stopped")
	return nil
}

func (s *Server) handleGetParameter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.ForTool(s.logger, ToolGetParameter)

	name, err := req.RequireString("name")
	if err != nil {
		log.Warn().Err(err).Msg("missing name argument")
		return mcp.NewToolResultError("name is required"), nil
	}
	field := req.GetString("field", "")

	value, err := s.lookup.Value(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("parameter", name).Msg("lookup failed")
		return mcp.NewToolResultError(errors.UserMessage(err)), nil
	}

	if field != "" {
		value, err = client.Field(value, field)
		if err != nil {
			return mcp.NewToolResultError(errors.UserMessage(err)), nil
		}
	}

	log.Debug().Str("parameter", name).Str("field", field).Msg("parameter returned")
	return mcp.NewToolResultText(value), nil
}

func (s *Server) handleListParameters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.lookup.(Lister).Names()
	log := logger.ForTool(s.logger, ToolListParameters)
	log.Debug().Int("count", len(names)).Msg("parameters listed")
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}
