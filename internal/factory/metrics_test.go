package factory_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
	"github.com/openshift-assisted/ecs-rebalancer/internal/factory"
)

func TestCreatePrometheusServer(t *testing.T) {
	registry := prometheus.NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "events_total", Help: "Event counter."})
	registry.MustRegister(counter)
	counter.Inc()

	server := factory.CreatePrometheusServer(config.Metrics{Port: 7777}, registry)
	assert.Equal(t, ":7777", server.Addr)

	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "events_total 1")

	recorder = httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
