package handler

import (
	"context"
	"encoding/json"
)

// InvokeRaw runs Invoke on a raw payload and returns the JSON-encoded
// Response, the same bytes the Lambda runtime would hand back to the caller.
func (h *Handler) InvokeRaw(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := h.Invoke(ctx, json.RawMessage(payload))
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}
