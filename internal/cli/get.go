package cli

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/brendan.keane/paramfn/internal/awsconfig"
	"github.com/brendan.keane/paramfn/internal/config"
	"github.com/brendan.keane/paramfn/internal/docs"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/brendan.keane/paramfn/pkg/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Getter is the part of client.Client the commands use.
type Getter interface {
	GetParameter(ctx context.Context, name string) (*client.Result, error)
	Value(ctx context.Context, name string) (string, error)
}

// ClientFactory builds a Getter for the configured target.
type ClientFactory func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Getter, error)

// DefaultClientFactory creates a real client. lambda:// targets get an AWS
// config honoring --region, --role-arn and --endpoint-url.
func DefaultClientFactory(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Getter, error) {
	target, err := client.ParseTarget(cfg.Client.Target)
	if err != nil {
		return nil, err
	}

	opts := client.Options{
		Target:     cfg.Client.Target,
		Token:      cfg.Client.Token,
		Base64Body: cfg.Client.Base64Body,
		Envelope:   cfg.Client.Envelope,
		Logger:     logger,
		Timeout:    cfg.Client.Timeout,
	}

	if target.Scheme == "lambda" {
		awsCfg, err := awsconfig.Load(ctx, awsOptions(cfg, logger))
		if err != nil {
			return nil, err
		}
		opts.AWSConfig = &awsCfg
	}

	return client.New(ctx, opts)
}

func awsOptions(cfg *config.Config, logger zerolog.Logger) awsconfig.Options {
	return awsconfig.Options{
		Region:         cfg.Client.Region,
		RoleArn:        cfg.Client.RoleArn,
		RoleExternalID: cfg.Client.RoleExternalID,
		EndpointURL:    cfg.Client.EndpointURL,
		Logger:         logger,
	}
}

// GetHandler handles the get command
type GetHandler struct {
	logger    zerolog.Logger
	newClient ClientFactory
}

// NewGetHandler creates a new get command handler
func NewGetHandler(logger zerolog.Logger, factory ClientFactory) *GetHandler {
	return &GetHandler{
		logger:    logger.With().Str("handler", "get").Logger(),
		newClient: factory,
	}
}

// Execute fetches args[0] and prints it. A non-200 answer is printed and
// returned as an error.
func (h *GetHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}
	name := args[0]

	h.logger.Debug().
		Str("target", cfg.Client.Target).
		Str("parameter", name).
		Bool("base64", cfg.Client.Base64Body).
		Bool("envelope", cfg.Client.Envelope).
		Msg("processing get command")

	c, err := h.newClient(cmd.Context(), cfg, h.logger)
	if err != nil {
		return err
	}

	result, err := c.GetParameter(cmd.Context(), name)
	if err != nil {
		h.logger.Debug().Interface("debug", errors.DebugInfo(err)).Msg("get failed")
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Client.IncludeStatus {
		code := strconv.Itoa(result.StatusCode)
		fmt.Fprintf(out, "%s %s\n\n", docs.StatusStyle(code).Render(code), http.StatusText(result.StatusCode))
	}

	if result.StatusCode != http.StatusOK {
		fmt.Fprintln(out, result.Body)
		return errors.Newf(errors.ErrorTypeNetwork, "function answered %d", result.StatusCode).
			WithContext("target", cfg.Client.Target).
			WithContext("status", result.StatusCode)
	}

	value := result.Body
	if cfg.Client.Field != "" {
		if value, err = client.Field(value, cfg.Client.Field); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, value)
	return nil
}

// loadConfig returns the config stored by the root command, or loads it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg, ok := config.FromContext(cmd.Context()); ok {
		return cfg, nil
	}
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
