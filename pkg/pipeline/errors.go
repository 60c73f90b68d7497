package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrProcessingError

type ErrProcessingError struct {
	error
	Category         string
	Origin           *Origin
	AdditionalInputs []Input
}

// Origin describes where the failed payload came from.
type Origin struct {
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
	Payload   []byte
}

type Input struct {
	Source string
	Key    string
	Value  []byte
}

const (
	UnknownCategory        = "unknown"
	UnmarshalErrorCategory = "unmarshal"
	PanicCategory          = "panic"
)

func NewErrProcessingError(err error, category string, additionalInputs []Input) ErrProcessingError {
	return ErrProcessingError{
		error:            err,
		Category:         category,
		AdditionalInputs: additionalInputs,
	}
}

// WithOrigin returns a copy of the error attached to the given origin.
func (e ErrProcessingError) WithOrigin(origin Origin) ErrProcessingError {
	e.Origin = &origin

	return e
}

func (e ErrProcessingError) Unwrap() error {
	return e.error
}

// AsErrProcessingError returns err as an ErrProcessingError, categorized as unknown if it isn't one.
func AsErrProcessingError(err error) ErrProcessingError {
	ret := ErrProcessingError{}
	if errors.As(err, &ret) {
		return ret
	}

	return NewErrProcessingError(err, UnknownCategory, nil)
}

// ErrRetryableError

var ErrRetryableError = errors.New("retryable error")

func NewErrRetryableError(err error) error {
	return fmt.Errorf("%w: %w", ErrRetryableError, err)
}

func NewRetryableErrProcessingError(err error, category string, additionalInputs []Input) ErrProcessingError {
	return NewErrProcessingError(NewErrRetryableError(err), category, additionalInputs)
}
