package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/brendan.keane/paramfn/internal/urlgateway"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// ServeHandler handles the serve command
type ServeHandler struct {
	logger zerolog.Logger
}

// NewServeHandler creates a new serve command handler
func NewServeHandler(logger zerolog.Logger) *ServeHandler {
	return &ServeHandler{
		logger: logger.With().Str("handler", "serve").Logger(),
	}
}

// Execute listens on --addr until interrupted.
func (h *ServeHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fn, err := newLocalHandler(cfg, h.logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "cannot listen").
			WithContext("key", "addr")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h.logger.Warn().Str("addr", ln.Addr().String()).Msg("serving function URL")
	return h.Run(ctx, ln, urlgateway.InvokerFunc(fn.InvokeRaw))
}

// Run serves invoker on ln until ctx is done.
func (h *ServeHandler) Run(ctx context.Context, ln net.Listener, invoker urlgateway.Invoker) error {
	srv := &http.Server{
		Handler:           urlgateway.New(invoker, h.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, errors.ErrorTypeNetwork, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	h.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "shutdown")
	}
	return nil
}
