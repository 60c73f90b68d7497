package processing

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

const (
	noDetailType = "none"
	otherSource  = "other"
)

type CountData struct {
	counter *prometheus.CounterVec
	inner   pipeline.Processing[events.CloudWatchEvent]
}

func NewCountData(p pipeline.Processing[events.CloudWatchEvent], registry prometheus.Registerer, config pipeline.MetricsConfig) (pipeline.Processing[events.CloudWatchEvent], error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "events_total",
		Help:      "Event counter by source and detail type.",
	}, []string{"source", "detail_type"})

	err := registry.Register(counter)
	if err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	ret := CountData{
		counter: counter,
		inner:   p,
	}

	return ret, nil
}

func (p CountData) Process(ctx context.Context, event events.CloudWatchEvent) error {
	detailType := event.DetailType
	if detailType == "" {
		detailType = noDetailType
	}

	// Sources are not filtered upstream, keep the label bounded
	source := event.Source
	if source != EventSource {
		source = otherSource
	}

	defer p.counter.WithLabelValues(source, detailType).Inc()

	return p.inner.Process(ctx, event)
}
