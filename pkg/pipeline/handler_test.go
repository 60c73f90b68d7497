package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline/mock"
)

// Fakes

type fakeSession struct {
	sarama.ConsumerGroupSession

	ctx context.Context

	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context {
	return s.ctx
}

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) Claims() map[string][]int32 {
	return map[string][]int32{"events": {0}}
}

func (s *fakeSession) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int64(nil), s.marked...)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func newFakeClaim(msgs ...*sarama.ConsumerMessage) *fakeClaim {
	ret := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, len(msgs))}

	for _, msg := range msgs {
		ret.messages <- msg
	}

	close(ret.messages)

	return ret
}

func (c *fakeClaim) Topic() string { return "events" }
func (c *fakeClaim) Partition() int32 { return 0 }
func (c *fakeClaim) InitialOffset() int64 { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func message(offset int64, value []byte) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:     "events",
		Partition: 0,
		Offset:    offset,
		Timestamp: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC),
		Value:     value,
	}
}

func mustMarshal(obj any) []byte {
	ret, err := json.Marshal(obj)
	Expect(err).NotTo(HaveOccurred())

	return ret
}

// Test JSONHandler

var _ = Describe("Testing JSONHandler", func() {
	var ctrl *gomock.Controller

	var proc *mock.MockProcessing[Data]
	var errProc *mock.MockErrorProcessing
	var handler pipeline.JSONHandler[Data]
	var session *fakeSession

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())

		proc = mock.NewMockProcessing[Data](ctrl)
		errProc = mock.NewMockErrorProcessing(ctrl)
		handler = pipeline.NewJSONHandler[Data](proc, errProc).WithLogger(logr.Discard())
		session = &fakeSession{ctx: context.Background()}
	})

	When("every message is processed successfully", func() {
		It("should decode the payload and mark every message", func() {
			proc.EXPECT().Process(gomock.Any(), Data{Cluster: "cluster1"}).Return(nil).Times(1)
			proc.EXPECT().Process(gomock.Any(), Data{Cluster: "cluster2"}).Return(nil).Times(1)

			claim := newFakeClaim(
				message(1, mustMarshal(Data{Cluster: "cluster1"})),
				nil,
				message(2, mustMarshal(Data{Cluster: "cluster2"})),
			)

			Expect(handler.ConsumeClaim(session, claim)).To(Succeed())
			Expect(session.Marked()).To(Equal([]int64{1, 2}))
		})
	})

	When("a message isn't valid json", func() {
		It("should send an unmarshal error with its origin to the error processing", func() {
			errProc.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pErr pipeline.ErrProcessingError) error {
				Expect(pErr.Category).To(Equal(pipeline.UnmarshalErrorCategory))
				Expect(pErr.Origin).NotTo(BeNil())
				Expect(pErr.Origin.Offset).To(BeEquivalentTo(7))
				Expect(pErr.Origin.Payload).To(Equal([]byte("{not json")))

				return nil
			}).Times(1)

			Expect(handler.ConsumeClaim(session, newFakeClaim(message(7, []byte("{not json"))))).To(Succeed())
			Expect(session.Marked()).To(Equal([]int64{7}))
		})
	})

	When("the processing fails", func() {
		It("should keep the category and still mark the message", func() {
			proc.EXPECT().Process(gomock.Any(), data).Return(pipeline.NewErrProcessingError(errOneError, oneCategory, nil)).Times(1)
			errProc.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pErr pipeline.ErrProcessingError) error {
				Expect(pErr).To(MatchError(errOneError))
				Expect(pErr.Category).To(Equal(oneCategory))
				Expect(pErr.Origin.Topic).To(Equal("events"))

				return errors.New("dlq unavailable")
			}).Times(1)

			Expect(handler.ConsumeClaim(session, newFakeClaim(message(3, mustMarshal(data))))).To(Succeed())
			Expect(session.Marked()).To(Equal([]int64{3}))
		})

		It("should categorize plain errors as unknown", func() {
			proc.EXPECT().Process(gomock.Any(), data).Return(errOneError).Times(1)
			errProc.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pErr pipeline.ErrProcessingError) error {
				Expect(pErr.Category).To(Equal(pipeline.UnknownCategory))

				return nil
			}).Times(1)

			Expect(handler.ConsumeClaim(session, newFakeClaim(message(4, mustMarshal(data))))).To(Succeed())
		})
	})

	When("the session context is cancelled", func() {
		It("should stop without processing or marking", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			session.ctx = ctx

			Expect(handler.ConsumeClaim(session, newFakeClaim(message(5, mustMarshal(data))))).To(Succeed())
			Expect(session.Marked()).To(BeEmpty())
		})
	})

	It("should setup and cleanup without error", func() {
		Expect(handler.Setup(session)).To(Succeed())
		Expect(handler.Cleanup(session)).To(Succeed())
	})
})
