package factory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
)

// CreateECSClient builds the client used by the reconciler. Region and credentials fall back to the
// environment of the process, which is what a lambda runtime provides.
func CreateECSClient(ctx context.Context, conf config.ECS) (*ecs.Client, error) {
	awsConfig, err := loadAWSConfig(ctx, conf.Region, conf.BaseEndpoint, conf.Creds)
	if err != nil {
		return nil, err
	}

	return ecs.NewFromConfig(awsConfig), nil
}
