package pipeline_test

import (
	"context"
	"errors"
	"sync"

	"github.com/IBM/sarama"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline/mock"
)

// fakeConsumerGroup returns the next error of consumeErrs on every Consume call,
// and blocks until the context is done once they are exhausted.
type fakeConsumerGroup struct {
	sarama.ConsumerGroup

	mu          sync.Mutex
	consumeErrs []error
	topics      [][]string
	closed      bool

	errs chan error
}

func newFakeConsumerGroup(consumeErrs ...error) *fakeConsumerGroup {
	return &fakeConsumerGroup{
		consumeErrs: consumeErrs,
		errs:        make(chan error),
	}
}

func (f *fakeConsumerGroup) Consume(ctx context.Context, topics []string, _ sarama.ConsumerGroupHandler) error {
	f.mu.Lock()
	f.topics = append(f.topics, topics)

	if len(f.consumeErrs) > 0 {
		err := f.consumeErrs[0]
		f.consumeErrs = f.consumeErrs[1:]
		f.mu.Unlock()

		return err
	}
	f.mu.Unlock()

	<-ctx.Done()

	return nil
}

func (f *fakeConsumerGroup) Errors() <-chan error {
	return f.errs
}

func (f *fakeConsumerGroup) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.closed {
		f.closed = true
		close(f.errs)
	}

	return nil
}

func (f *fakeConsumerGroup) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

var _ = Describe("Testing Runner", func() {
	var (
		ctrl    *gomock.Controller
		proc    *mock.MockProcessing[Data]
		errProc *mock.MockErrorProcessing
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		proc = mock.NewMockProcessing[Data](ctrl)
		errProc = mock.NewMockErrorProcessing(ctrl)
	})

	It("should refuse to start without topic", func(ctx SpecContext) {
		consumer := newFakeConsumerGroup()

		err := pipeline.NewRunner[Data](consumer, []string{" ", ""}, proc, errProc).Start(ctx)
		Expect(err).To(MatchError(pipeline.ErrNoTopic))
		Expect(consumer.Closed()).To(BeTrue())
	})

	It("should consume again after a rebalance and stop with the context", func() {
		consumer := newFakeConsumerGroup(nil)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error)
		go func() {
			done <- pipeline.NewRunner[Data](consumer, []string{"ecs-events"}, proc, errProc).Start(ctx)
		}()

		Eventually(func() int {
			consumer.mu.Lock()
			defer consumer.mu.Unlock()

			return len(consumer.topics)
		}).Should(Equal(2))

		cancel()

		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Expect(consumer.Closed()).To(BeTrue())
		Expect(consumer.topics[0]).To(Equal([]string{"ecs-events"}))
	})

	It("should fail when the consumer group fails", func(ctx SpecContext) {
		errConsume := errors.New("broker unreachable")
		consumer := newFakeConsumerGroup(errConsume)

		err := pipeline.NewRunner[Data](consumer, []string{"ecs-events"}, proc, errProc).Start(ctx)
		Expect(err).To(MatchError(errConsume))
		Expect(consumer.Closed()).To(BeTrue())
	})
})
