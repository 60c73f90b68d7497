package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openshift-assisted/ecs-rebalancer/internal/common"
	"github.com/openshift-assisted/ecs-rebalancer/internal/domain/repo/processingerror"
	"github.com/openshift-assisted/ecs-rebalancer/internal/factory"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
	"github.com/openshift-assisted/ecs-rebalancer/internal/processing"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile the service for every ECS event read from kafka",
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.Logger()

		// Set max procs based on cpu limits
		err := common.SetMaxProcs()
		if err != nil {
			logger.Error(err, "failed to set max procs")

			return
		}

		// Set max memory
		err = common.SetMemLimit()
		if err != nil {
			logger.Error(err, "failed to set mem limit")

			return
		}

		// Listen to sigterm and interrupt signals
		ctx := common.SetupSignalHandler(context.Background())

		// Create pipeline
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		runner, err := createRunner(ctx, registry)
		if err != nil {
			logger.Error(err, "failed to create pipeline")

			return
		}

		metricsServer := factory.CreatePrometheusServer(conf.Metrics, registry)

		// Start pipeline
		group, ctx := errgroup.WithContext(ctx)

		group.Go(func() error {
			return runner.Start(ctx)
		})

		group.Go(func() error {
			err := metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}

			return err
		})

		group.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.GracefulDuration)
			defer cancel()

			return metricsServer.Shutdown(shutdownCtx)
		})

		err = group.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(err, "Processing failed")

			return
		}

		logger.V(2).Info("Processing stopped")
	},
}

func createRunner(ctx context.Context, registry *prometheus.Registry) (pipeline.Runner[events.CloudWatchEvent], error) {
	logger := log.Logger()

	// Main processing
	ecsClient, err := factory.CreateECSClient(ctx, conf.ECS)
	if err != nil {
		return pipeline.Runner[events.CloudWatchEvent]{}, fmt.Errorf("failed to create ecs client: %w", err)
	}

	mainProcessing, err := processing.NewMain(
		processing.NewClassifier(conf.Service.ARN),
		processing.NewReconciler(ecsClient),
	).WithOutcomeMetrics(registry, pipeline.MetricsConfig{})
	if err != nil {
		return pipeline.Runner[events.CloudWatchEvent]{}, fmt.Errorf("failed to create main processing: %w", err)
	}

	decorated, err := factory.DecorateProcessing(mainProcessing, registry)
	if err != nil {
		return pipeline.Runner[events.CloudWatchEvent]{}, fmt.Errorf("failed to decorate main processing: %w", err)
	}

	// Error processing
	s3Client, err := factory.CreateS3Client(ctx, conf.DeadLetterQueue.S3)
	if err != nil {
		return pipeline.Runner[events.CloudWatchEvent]{}, fmt.Errorf("failed to create s3 client: %w", err)
	}

	dlq := processingerror.NewS3Writer(s3Client, conf.DeadLetterQueue.Bucket, conf.DeadLetterQueue.KeyPrefix)

	errorProcessing, err := factory.DecorateErrorProcessing(dlq, conf.DeadLetterQueue.Retry, registry)
	if err != nil {
		return pipeline.Runner[events.CloudWatchEvent]{}, fmt.Errorf("failed to decorate error processing: %w", err)
	}

	// Kafka
	consumer, err := factory.CreateKafkaConsumer(conf.Kafka)
	if err != nil {
		return pipeline.Runner[events.CloudWatchEvent]{}, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	ret := pipeline.NewRunner[events.CloudWatchEvent](consumer, []string{conf.Kafka.Consumer.Topic}, decorated, errorProcessing).WithLogger(logger)

	return ret, nil
}

func init() {
	rootCmd.AddCommand(processCmd)
}
