package processing

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ecs-rebalancer/internal/common"
	"github.com/openshift-assisted/ecs-rebalancer/internal/domain/entity"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

const (
	EventSource                            = "aws.ecs"
	DetailTypeContainerInstanceStateChange = "ECS Container Instance State Change"

	inputSourceEvent = "event"
)

var errMissingClusterArn = errors.New("missing clusterArn")

// Classification is the outcome of Classify. When Skip is set, Target is empty.
type Classification struct {
	Target entity.ServiceDescriptor
	Skip   bool
	Reason string
}

// Classifier filters events down to the container instance state changes of ECS.
type Classifier struct {
	serviceARN string
	logger     logr.Logger
}

func NewClassifier(serviceARN string) Classifier {
	return Classifier{
		serviceARN: serviceARN,
		logger:     log.Logger(),
	}
}

func (c Classifier) WithLogger(logger logr.Logger) Classifier {
	c.logger = logger

	return c
}

// Classify validates the event and returns the service to reconcile.
// Events of another detail type are skipped, which is not an error.
func (c Classifier) Classify(event *events.CloudWatchEvent) (Classification, error) {
	if isEmptyEvent(event) {
		return Classification{}, common.NewErrProcessingError(ErrInvalidInput, categoryErrInvalidInput, nil, "invalid event")
	}

	if event.Source != EventSource {
		return Classification{}, common.NewErrProcessingError(ErrUnsupportedSource, categoryErrUnsupportedSource, eventInputs(event), "unexpected source %q", event.Source)
	}

	if c.serviceARN == "" {
		return Classification{}, common.NewErrProcessingError(ErrMissingConfiguration, categoryErrMissingConfiguration, eventInputs(event), "invalid configuration")
	}

	if event.DetailType != DetailTypeContainerInstanceStateChange {
		reason := "SKIP: Function operates only on " + DetailTypeContainerInstanceStateChange + " events."
		c.logger.Info(reason, "detailType", event.DetailType, "eventID", event.ID)

		return Classification{Skip: true, Reason: reason}, nil
	}

	detail, err := parseDetail(event.Detail)
	if err != nil {
		return Classification{}, common.NewErrProcessingError(errors.Join(ErrInvalidInput, err), categoryErrInvalidInput, eventInputs(event), "invalid %s detail", event.DetailType)
	}

	target := entity.ServiceDescriptor{
		ClusterID: detail.ClusterArn,
		ServiceID: c.serviceARN,
	}

	c.logger.Info("Reconciling service",
		"cluster", target.ClusterID,
		"service", target.ServiceID,
		"containerInstance", detail.ContainerInstanceArn,
		"status", detail.Status,
		"agentConnected", detail.AgentConnected,
	)

	return Classification{Target: target}, nil
}

// eventInputs identifies the event in dead letter records.
func eventInputs(event *events.CloudWatchEvent) []pipeline.Input {
	return []pipeline.Input{
		{Source: inputSourceEvent, Key: "id", Value: []byte(event.ID)},
		{Source: inputSourceEvent, Key: "source", Value: []byte(event.Source)},
		{Source: inputSourceEvent, Key: "detail-type", Value: []byte(event.DetailType)},
	}
}

func isEmptyEvent(event *events.CloudWatchEvent) bool {
	if event == nil {
		return true
	}

	return event.Source == "" &&
		event.DetailType == "" &&
		event.ID == "" &&
		event.Version == "" &&
		event.AccountID == "" &&
		event.Region == "" &&
		event.Time.IsZero() &&
		len(event.Resources) == 0 &&
		isEmptyJSON(event.Detail)
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseDetail(raw json.RawMessage) (entity.ContainerInstanceStateChange, error) {
	ret := entity.ContainerInstanceStateChange{}

	if isEmptyJSON(raw) {
		return ret, errMissingClusterArn
	}

	err := json.Unmarshal(raw, &ret)
	if err != nil {
		return ret, err
	}

	if ret.ClusterArn == "" {
		return ret, errMissingClusterArn
	}

	return ret, nil
}
