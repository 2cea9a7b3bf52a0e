// Command parameters is the Lambda entry point of the parameter lookup
// function.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/brendan.keane/paramfn/internal/config"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/brendan.keane/paramfn/internal/handler"
	"github.com/brendan.keane/paramfn/internal/logger"
	"github.com/brendan.keane/paramfn/internal/store"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Logger = logger.InitLogger(logger.LambdaConfig("info"))
		errors.PresentError(err)
	}

	logCfg := logger.LambdaConfig(cfg.Log.Level)
	logCfg.Format = cfg.Log.Format
	log.Logger = logger.InitLogger(logCfg)

	h, err := handler.New(handler.Options{
		Secret: cfg.Secret,
		Store:  store.Default(),
		Logger: log.Logger,
	})
	if err != nil {
		errors.PresentError(err)
	}

	log.Info().Strs("parameters", h.Names()).Msg("function ready")
	lambda.Start(h.Invoke)
}
