package processing

import "errors"

var (
	ErrInvalidInput         = errors.New("no event provided")
	ErrUnsupportedSource    = errors.New("function only supports input from events with a source type of: " + EventSource)
	ErrMissingConfiguration = errors.New("need to set the service arn configuration")

	// ErrClusterNotFound is returned when ECS does not describe the cluster named by the event.
	ErrClusterNotFound = errors.New("cluster not found")
)

const (
	categoryErrInvalidInput         = "invalid_input"
	categoryErrUnsupportedSource    = "unsupported_source"
	categoryErrMissingConfiguration = "missing_configuration"
	categoryErrECSPrefix            = "ecs_"
)
