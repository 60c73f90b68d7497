package processingerror

import "time"

// ProcessingError is the document written to the dead letter queue for every failed event.
type ProcessingError struct {
	ProcessingContext ProcessingContext
	Sources           Sources
	Reason            Reason
}

type ProcessingContext struct {
	Component Component
	Time      time.Time
	Host      string
}

type Component struct {
	Version  string
	Branch   string
	Revision string
}

type Sources struct {
	Main       *Source `json:",omitempty"`
	Additional []KeyValue
}

// Source is the kafka record holding the failed event.
type Source struct {
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
	Payload   []byte
}

type KeyValue struct {
	Source string
	Key    string
	Value  []byte
}

// Reason tells why the event failed. Retryable failures may succeed if the event is replayed.
type Reason struct {
	Category  string
	Error     string
	Retryable bool
}
