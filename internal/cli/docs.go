package cli

import (
	"fmt"

	"github.com/brendan.keane/paramfn/internal/docs"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// DocsHandler handles the docs command
type DocsHandler struct {
	logger zerolog.Logger
}

// NewDocsHandler creates a new docs command handler
func NewDocsHandler(logger zerolog.Logger) *DocsHandler {
	return &DocsHandler{
		logger: logger.With().Str("handler", "docs").Logger(),
	}
}

// Execute prints the rendered or raw OpenAPI document.
func (h *DocsHandler) Execute(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		_, err := out.Write(docs.Raw())
		return err
	}

	d, err := docs.Load()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load OpenAPI document")
		return err
	}

	fmt.Fprintln(out, d.Render())
	return nil
}
