// Package awsconfig loads the AWS configuration shared by the SDK clients.
package awsconfig

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultRetryMaxAttempts     = 10
	DefaultRetryMaxBackoffDelay = 60 * time.Second
	DefaultRoleSessionName      = "paramfn"
)

// Options tune Load. The zero value uses default credentials.
type Options struct {
	Region               string
	RoleArn              string
	RoleSessionName      string
	RoleExternalID       string
	EndpointURL          string
	RetryMaxAttempts     int
	RetryMaxBackoffDelay time.Duration
	Logger               zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.RetryMaxAttempts == 0 {
		o.RetryMaxAttempts = DefaultRetryMaxAttempts
	}
	if o.RetryMaxBackoffDelay == 0 {
		o.RetryMaxBackoffDelay = DefaultRetryMaxBackoffDelay
	}
	if o.RoleSessionName == "" {
		o.RoleSessionName = DefaultRoleSessionName
	}
	return o
}

// Load returns an aws.Config with a patient retryer. When RoleArn is set the
// credentials come from assuming that role.
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With().Str("component", "awsconfig").Logger()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer {
			var r aws.Retryer = retry.NewStandard()
			r = retry.AddWithMaxAttempts(r, opts.RetryMaxAttempts)
			return retry.AddWithMaxBackoffDelay(r, opts.RetryMaxBackoffDelay)
		}),
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.EndpointURL != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.EndpointURL))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, errors.ErrorTypeConfig, "loading AWS config").
			WithContext("key", "AWS_REGION")
	}

	if opts.RoleArn != "" {
		log.Debug().Str("role_arn", opts.RoleArn).Msg("assume role")
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), opts.RoleArn, assumeRoleOptions(opts))
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	log.Debug().
		Str("region", cfg.Region).
		Str("endpoint_url", opts.EndpointURL).
		Int("retry_max_attempts", opts.RetryMaxAttempts).
		Dur("retry_max_backoff", opts.RetryMaxBackoffDelay).
		Msg("aws config loaded")

	return cfg, nil
}

func assumeRoleOptions(opts Options) func(*stscreds.AssumeRoleOptions) {
	return func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = opts.RoleSessionName
		if opts.RoleExternalID != "" {
			o.ExternalID = aws.String(opts.RoleExternalID)
		}
	}
}
