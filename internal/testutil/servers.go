package testutil

import (
	"net/http/httptest"

	"github.com/brendan.keane/paramfn/internal/urlgateway"
	"github.com/rs/zerolog"
)

// NewFunctionURLServer starts a test server that fronts fn the way a Lambda
// function URL does.
func NewFunctionURLServer(fn FunctionFunc) *httptest.Server {
	gw := urlgateway.New(urlgateway.InvokerFunc(fn), zerolog.Nop())
	return httptest.NewServer(gw)
}
