// Command paramfn looks up parameters from the parameters function and runs
// it locally.
package main

import (
	"github.com/brendan.keane/paramfn/internal/cli"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/brendan.keane/paramfn/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// variables already set in the environment take precedence over .env
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Logger = logger.SetupFromFlags(false, false, "pretty")
		errors.PresentError(err)
	}
}
