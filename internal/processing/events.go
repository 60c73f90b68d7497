package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-assisted/ecs-rebalancer/internal/common"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

// Main classifies an event and reconciles the service it targets.
type Main struct {
	classifier Classifier
	reconciler Reconciler

	outcomes *prometheus.CounterVec
	logger   logr.Logger
}

func NewMain(classifier Classifier, reconciler Reconciler) Main {
	return Main{
		classifier: classifier,
		reconciler: reconciler,
		logger:     log.Logger(),
	}
}

// WithLogger sets the logger of Main and of its classifier and reconciler.
func (m Main) WithLogger(logger logr.Logger) Main {
	m.logger = logger
	m.classifier = m.classifier.WithLogger(logger)
	m.reconciler = m.reconciler.WithLogger(logger)

	return m
}

// WithOutcomeMetrics counts successful handlings by outcome.
func (m Main) WithOutcomeMetrics(registry prometheus.Registerer, config pipeline.MetricsConfig) (Main, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "reconciliation_total",
		Help:      "Reconciliation counter by outcome.",
	}, []string{"outcome"})

	err := registry.Register(counter)
	if err != nil {
		return m, fmt.Errorf("failed to register metric: %w", err)
	}

	m.outcomes = counter

	return m, nil
}

// Handle runs one invocation. Skipped events, missing services and balanced clusters are successful outcomes.
func (m Main) Handle(ctx context.Context, event *events.CloudWatchEvent) (Result, error) {
	classification, err := m.classifier.Classify(event)
	if err != nil {
		return Result{}, err
	}

	if classification.Skip {
		m.count(OutcomeSkipped)

		return Result{Outcome: OutcomeSkipped}, nil
	}

	result, err := m.reconciler.Reconcile(ctx, classification.Target)
	if err != nil {
		return result, err
	}

	m.count(result.Outcome)
	m.logger.Info("DONE")

	return result, nil
}

// HandleLambda is the lambda entrypoint. It returns the raw UpdateService response, nil when nothing changed.
func (m Main) HandleLambda(ctx context.Context, event *events.CloudWatchEvent) (*ecs.UpdateServiceOutput, error) {
	result, err := m.Handle(ctx, event)
	if err != nil {
		return nil, err
	}

	return result.Update, nil
}

// Process implements pipeline.Processing for events consumed from a stream.
// ECS errors are categorized by their API error code.
func (m Main) Process(ctx context.Context, event events.CloudWatchEvent) error {
	_, err := m.Handle(ctx, &event)
	if err != nil {
		return categorizeError(err)
	}

	return nil
}

func (m Main) count(outcome Outcome) {
	if m.outcomes == nil {
		return
	}

	m.outcomes.WithLabelValues(string(outcome)).Inc()
}

func categorizeError(err error) error {
	pErr := pipeline.ErrProcessingError{}
	if errors.As(err, &pErr) {
		return err
	}

	if errors.Is(err, ErrClusterNotFound) {
		return common.NewErrProcessingError(err, categoryErrECSPrefix+"cluster_not_found", nil, "ecs reconciliation failed")
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		category := categoryErrECSPrefix + strings.ToLower(apiErr.ErrorCode())

		return common.NewErrProcessingError(err, category, nil, "ecs reconciliation failed")
	}

	return common.NewErrProcessingError(err, categoryErrECSPrefix+"client", nil, "ecs reconciliation failed")
}
