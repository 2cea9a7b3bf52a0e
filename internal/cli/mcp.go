package cli

import (
	"github.com/brendan.keane/paramfn/internal/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// MCPHandler handles MCP server commands
type MCPHandler struct {
	logger    zerolog.Logger
	newClient ClientFactory
}

// NewMCPHandler creates a new MCP command handler
func NewMCPHandler(logger zerolog.Logger, factory ClientFactory) *MCPHandler {
	return &MCPHandler{
		logger:    logger.With().Str("handler", "mcp").Logger(),
		newClient: factory,
	}
}

// Execute handles the MCP server command
func (h *MCPHandler) Execute(cmd *cobra.Command, args []string) error {
	server, err := h.build(cmd)
	if err != nil {
		return err
	}
	h.logger.Debug().Msg("MCP server created, starting message loop")
	return server.Serve()
}

// build creates the server backed by the local store or the target.
func (h *MCPHandler) build(cmd *cobra.Command) (*mcp.Server, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cfg.MCP.Local {
		fn, err := newLocalHandler(cfg, h.logger)
		if err != nil {
			return nil, err
		}
		h.logger.Debug().Msg("serving built-in parameters")
		return mcp.NewServer(h.logger, localLookup{h: fn}, cfg.MCP.Description), nil
	}

	if err := cfg.ValidateClient(); err != nil {
		h.logger.Error().Err(err).Msg("MCP server needs a target or --local")
		return nil, err
	}

	c, err := h.newClient(cmd.Context(), cfg, h.logger)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create client")
		return nil, err
	}

	h.logger.Debug().Str("target", cfg.Client.Target).Msg("serving parameters from target")
	return mcp.NewServer(h.logger, c, cfg.MCP.Description), nil
}
