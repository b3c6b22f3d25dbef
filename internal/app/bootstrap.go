package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	"outagealert/internal/config"
	"outagealert/internal/logging"
)

const defaultRegion = "us-east-1"

// Bootstrap loads the AWS and process configuration and builds the logger.
// Outside APP_ENV=local, *_SSM_PARAM references are resolved through SSM.
func Bootstrap(ctx context.Context, binary string) (*config.Config, aws.Config, *slog.Logger, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := LoadAWSConfig(ctx, region, os.Getenv("AWS_ENDPOINT_URL"))
	if err != nil {
		return nil, aws.Config{}, nil, err
	}

	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(awsCfg)
	}

	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return nil, aws.Config{}, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With(
		"service", cfg.Service,
		"binary", binary,
		"environment", cfg.Environment,
	)
	return cfg, awsCfg, logger, nil
}
