package factory

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
	"github.com/openshift-assisted/ecs-rebalancer/internal/domain/repo"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
	"github.com/openshift-assisted/ecs-rebalancer/internal/processing"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

/*
 * DecorateProcessing decorates the processing as follow:
 *
 * panic --> duration --> count --> main (classify + reconcile)
 *
 * ECS calls are never retried, a failed event goes to the dead letter queue.
 */
func DecorateProcessing(mainProcessing pipeline.Processing[events.CloudWatchEvent], registry prometheus.Registerer) (pipeline.Processing[events.CloudWatchEvent], error) {
	ret, err := processing.NewCountData(mainProcessing, registry, pipeline.MetricsConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create count processor: %w", err)
	}

	ret, err = pipeline.NewDurationMetricsDecoratorProcessing(ret, registry, clockwork.NewRealClock(), pipeline.MetricsConfig{Namespace: "main"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	return ret, nil
}

/*
 * DecorateErrorProcessing decorates the error processing as follow:
 *
 *										---> retry --> main (dlq)
 *	panic --> duration --> parallel ---|
 *										---> error count
 */
func DecorateErrorProcessing(writer repo.ProcessingErrorWriter, retry config.Retry, registry prometheus.Registerer) (pipeline.ErrorProcessing, error) {
	var ret pipeline.Processing[pipeline.ErrProcessingError] = pipeline.ProcessingFunc[pipeline.ErrProcessingError](writer.WriteProcessingError)

	logger := log.Logger()

	ret = pipeline.NewRetryProcessing[pipeline.ErrProcessingError](ret, pipeline.RetryConfig{
		MaxAttempt: retry.MaxAttempt,
		Delay:      retry.Delay,
		OnRetry: func(attempt uint, err error) {
			logger.V(1).Info("Dead letter write failed", "attempt", attempt+1, "maxAttempt", retry.MaxAttempt, "error", err.Error())
		},
	})

	errorCount, err := pipeline.NewErrorCountProcessing(registry, pipeline.MetricsConfig{Namespace: "error"})
	if err != nil {
		return nil, fmt.Errorf("failed to create error count processing: %w", err)
	}

	ret = pipeline.NewParallelProcessing[pipeline.ErrProcessingError](ret, errorCount)

	ret, err = pipeline.NewDurationMetricsDecoratorProcessing[pipeline.ErrProcessingError](ret, registry, clockwork.NewRealClock(), pipeline.MetricsConfig{Namespace: "error"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing[pipeline.ErrProcessingError](ret)

	return ret, nil
}
