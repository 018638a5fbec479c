package config

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/ceramicnetwork/go-sqs-flow"
	"github.com/ceramicnetwork/go-sqs-flow/common"
)

// AwsConfigWithOverride points every AWS client at customEndpoint, e.g. a local SQS-compatible service.
func AwsConfigWithOverride(ctx context.Context, customEndpoint string) (aws.Config, error) {
	endpointResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			PartitionID:       "aws",
			URL:               customEndpoint,
			SigningRegion:     os.Getenv(sqsflow.Env_AwsRegion),
			HostnameImmutable: true,
		}, nil
	})

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	return config.LoadDefaultConfig(
		httpCtx,
		config.WithRegion(os.Getenv(sqsflow.Env_AwsRegion)),
		config.WithEndpointResolverWithOptions(endpointResolver),
	)
}

// AwsConfig loads credentials and region the default way. Credentials are never read by this module directly.
func AwsConfig(ctx context.Context) (aws.Config, error) {
	awsEndpoint := os.Getenv(sqsflow.Env_AwsEndpoint)
	if len(awsEndpoint) > 0 {
		log.Printf("config: using custom global aws endpoint: %s", awsEndpoint)
		return AwsConfigWithOverride(ctx, awsEndpoint)
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	// Load the default configuration
	return config.LoadDefaultConfig(httpCtx, config.WithRegion(os.Getenv(sqsflow.Env_AwsRegion)))
}
