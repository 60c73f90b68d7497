package factory

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
)

const (
	metricsPath = "/metrics"
	healthPath  = "/healthz"
)

// CreatePrometheusServer serves the registry on /metrics and a liveness probe on /healthz.
func CreatePrometheusServer(conf config.Metrics, gatherer prometheus.Gatherer) *http.Server {
	ret := &http.Server{
		Addr:              fmt.Sprintf(":%v", conf.Port),
		IdleTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ret.SetKeepAlivesEnabled(true)

	router := http.NewServeMux()
	router.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.HandleFunc(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ret.Handler = router

	return ret
}
