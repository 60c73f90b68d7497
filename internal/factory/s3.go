package factory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
)

func CreateS3Client(ctx context.Context, conf config.S3) (*s3.Client, error) {
	awsConfig, err := loadAWSConfig(ctx, conf.Region, conf.BaseEndpoint, conf.Creds)
	if err != nil {
		return nil, err
	}

	ret := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = conf.UsePathStyle
	})

	return ret, nil
}
