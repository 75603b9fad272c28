package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	done := m.Start()
	m.Observe(http.MethodGet, "/v1/rentals/{id}", http.StatusOK, 20*time.Millisecond)
	m.Observe(http.MethodGet, "/v1/rentals/{id}", http.StatusOK, 30*time.Millisecond)
	m.Observe(http.MethodPost, "", http.StatusNotFound, time.Millisecond)
	done()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "rentwise_http_requests_total", "route", "/v1/rentals/{id}")
	require.NoError(t, err)
	require.EqualValues(t, 2, got)

	got, err = fetchCounterValue(mfs, "rentwise_http_requests_total", "route", "unmatched")
	require.NoError(t, err)
	require.EqualValues(t, 1, got)

	sum, err := fetchHistogramSum(mfs, "rentwise_http_request_duration_seconds", "route", "/v1/rentals/{id}")
	require.NoError(t, err)
	require.InDelta(t, 0.05, sum, 0.0001)

	gauge := findMetricFamily(mfs, "rentwise_http_requests_in_flight")
	require.NotNil(t, gauge)
	require.EqualValues(t, 0, gauge.GetMetric()[0].GetGauge().GetValue())
}
