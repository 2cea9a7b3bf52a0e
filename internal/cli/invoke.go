package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// InvokeHandler handles the invoke command
type InvokeHandler struct {
	logger zerolog.Logger
}

// NewInvokeHandler creates a new invoke command handler
func NewInvokeHandler(logger zerolog.Logger) *InvokeHandler {
	return &InvokeHandler{
		logger: logger.With().Str("handler", "invoke").Logger(),
	}
}

// Execute runs the function on one event and prints its JSON answer.
func (h *InvokeHandler) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	event, err := readEvent(cmd.InOrStdin(), cfg.Invoke.Event)
	if err != nil {
		return err
	}

	fn, err := newLocalHandler(cfg, h.logger)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	ctx := lambdacontext.NewContext(cmd.Context(), &lambdacontext.LambdaContext{
		AwsRequestID:       requestID,
		InvokedFunctionArn: "arn:aws:lambda:local:000000000000:function:parameters",
	})

	h.logger.Debug().Str("request_id", requestID).Int("event_size", len(event)).Msg("invoking in process")

	out, err := fn.InvokeRaw(ctx, event)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "invoke failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func readEvent(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "reading event from stdin")
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "reading event file").
			WithContext("field", "event")
	}
	return b, nil
}
