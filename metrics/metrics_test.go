package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExportCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncOrderCreated("pickup")
	m.IncOrderCreated("pickup")
	m.IncStatusTransition("Preparing")
	m.IncCheckoutRejected("")
	m.IncCartMutation("add")
	m.ObserveHTTP(http.MethodGet, "/api/cart", http.StatusOK, 25*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 2.0, counterValue(t, mfs, "orders_created_total", "fulfillment", "pickup"))
	assert.Equal(t, 1.0, counterValue(t, mfs, "order_status_transitions_total", "status", "Preparing"))
	assert.Equal(t, 1.0, counterValue(t, mfs, "checkout_rejected_total", "reason", "unknown"))
	assert.Equal(t, 1.0, counterValue(t, mfs, "cart_mutations_total", "op", "add"))

	mf := findFamily(mfs, "http_request_duration_seconds")
	require.NotNil(t, mf)
	assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.IncOrderCreated("pickup")
	m.ObserveHTTP("GET", "/", 200, time.Second)

	empty := New(nil)
	empty.IncCartMutation("add")
	assert.NotNil(t, empty.Handler())
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncOrderCreated("delivery")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `orders_created_total{fulfillment="delivery"} 1`)
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	mf := findFamily(mfs, name)
	require.NotNil(t, mf, name)
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s missing label %s=%s", name, label, value)
	return 0
}

func findFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
