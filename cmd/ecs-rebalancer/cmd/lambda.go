package cmd

import (
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ecs-rebalancer/internal/factory"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
	"github.com/openshift-assisted/ecs-rebalancer/internal/processing"
)

// lambdaCmd represents the lambda command
var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function triggered by ECS events",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.Logger()

		ecsClient, err := factory.CreateECSClient(cmd.Context(), conf.ECS)
		if err != nil {
			return fmt.Errorf("failed to create ecs client: %w", err)
		}

		handler := processing.NewMain(
			processing.NewClassifier(conf.Service.ARN),
			processing.NewReconciler(ecsClient),
		)

		logger.V(1).Info("Waiting for lambda invocations", "service", conf.Service.ARN)

		// Start never returns
		lambda.Start(handler.HandleLambda)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}
