package cli

import (
	"context"

	"github.com/brendan.keane/paramfn/internal/config"
	"github.com/brendan.keane/paramfn/internal/handler"
	"github.com/brendan.keane/paramfn/internal/store"
	"github.com/rs/zerolog"
)

// newLocalHandler builds the function in process with the built-in store.
func newLocalHandler(cfg *config.Config, logger zerolog.Logger) (*handler.Handler, error) {
	return handler.New(handler.Options{
		Secret: cfg.Secret,
		Store:  store.Default(),
		Logger: logger,
	})
}

// localLookup adapts a Handler to the MCP Lookup and Lister interfaces.
type localLookup struct {
	h *handler.Handler
}

func (l localLookup) Value(ctx context.Context, name string) (string, error) {
	return l.h.Resolve(ctx, name)
}

func (l localLookup) Names() []string {
	return l.h.Names()
}
