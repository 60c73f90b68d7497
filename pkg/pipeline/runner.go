package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"github.com/go-logr/logr"
)

var ErrNoTopic = errors.New("no topic to consume")

// Runner drives a JSONHandler over a consumer group until the context is done.
type Runner[Payload any] struct {
	consumer sarama.ConsumerGroup
	topics   []string

	handler JSONHandler[Payload]

	logger *logr.Logger
}

func NewRunner[Payload any](consumer sarama.ConsumerGroup, topics []string, processing Processing[Payload], errorProcessing ErrorProcessing) Runner[Payload] {
	handler := NewJSONHandler(processing, errorProcessing)

	return Runner[Payload]{
		consumer: consumer,
		topics:   cleanTopics(topics),
		handler:  handler,
	}
}

func (r Runner[Payload]) WithLogger(logger logr.Logger) Runner[Payload] {
	r.logger = &logger
	r.handler = r.handler.WithLogger(logger)

	return r
}

// Start blocks until ctx is cancelled or the consumer group fails.
// The consumer group is closed before returning.
func (r Runner[Payload]) Start(ctx context.Context) error {
	defer func() {
		err := r.consumer.Close()
		if err != nil {
			r.logError(err, "Failed to close consumer")
		}
	}()

	if len(r.topics) == 0 {
		return ErrNoTopic
	}

	go r.drainErrors()

	r.logInfo(1, "Consuming", "topics", r.topics)

	for session := 1; ; session++ {
		// Consume returns on every rebalance, so it has to be called in a loop
		err := r.consumer.Consume(ctx, r.topics, r.handler)
		if err != nil {
			r.logError(err, "Consumer failed", "session", session)

			return fmt.Errorf("consumer failed: %w", err)
		}

		err = ctx.Err()
		if err != nil {
			r.logInfo(0, "Context expired")

			return err
		}

		r.logInfo(2, "Consumer group rebalanced", "session", session)
	}
}

// drainErrors stops once the consumer group is closed.
func (r Runner[Payload]) drainErrors() {
	for err := range r.consumer.Errors() {
		r.logError(err, "kafka consumer error")
	}
}

func cleanTopics(topics []string) []string {
	ret := make([]string, 0, len(topics))

	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			ret = append(ret, topic)
		}
	}

	return ret
}

func (r Runner[Payload]) logInfo(level int, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.V(level).Info(msg, keysAndValues...)
}

func (r Runner[Payload]) logError(err error, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.Error(err, msg, keysAndValues...)
}
