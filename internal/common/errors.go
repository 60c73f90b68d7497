package common

import (
	"fmt"

	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

// NewErrProcessingError prefixes err with the formatted reason and tags it with category.
// The result still matches err with errors.Is.
func NewErrProcessingError(err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}

	return pipeline.NewErrProcessingError(fmt.Errorf("%s: %w", reason, err), category, inputs)
}

// NewRetryableErrProcessingError is NewErrProcessingError for errors worth a retry.
func NewRetryableErrProcessingError(err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	return NewErrProcessingError(pipeline.NewErrRetryableError(err), category, inputs, reason, args...)
}
