package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go/logging"
	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
)

// loadAWSConfig uses static credentials when they are set and the default chain otherwise.
func loadAWSConfig(ctx context.Context, region string, baseEndpoint string, creds config.AWSCreds) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithLogger(AWSLogger{log.Logger()}),
	}

	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	if creds.IsSet() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}

	ret, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to create aws config: %w", err)
	}

	if baseEndpoint != "" {
		endpoint := normalizeEndpoint(baseEndpoint)
		ret.BaseEndpoint = &endpoint
	}

	return ret, nil
}

func normalizeEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}

	return fmt.Sprintf("https://%s", endpoint)
}

// AWSLogger forwards sdk logs to logr. Debug logs are only visible from verbosity 3.
type AWSLogger struct {
	logger logr.Logger
}

func (a AWSLogger) Logf(classification logging.Classification, format string, v ...interface{}) {
	level := 0

	switch classification {
	case logging.Debug:
		level = 3
	case logging.Warn:
		level = 0
	default:
		return
	}

	msg := fmt.Sprintf(format, v...)

	a.logger.V(level).Info(msg)
}
