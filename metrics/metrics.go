package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records request and order-flow counters. A nil *Metrics, or one
// built without a registerer, silently records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpDuration      *prometheus.HistogramVec
	ordersCreated     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	checkoutRejected  *prometheus.CounterVec
	cartMutations     *prometheus.CounterVec
}

// New registers the service metrics on reg. Pass a *prometheus.Registry to
// get a gatherer for the /metrics endpoint as well.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created at checkout.",
	}, []string{"fulfillment"})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes by target status.",
	}, []string{"status"})
	checkoutRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejected_total",
		Help: "Checkout submissions rejected before an order was created.",
	}, []string{"reason"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart inserts, adjustments and removals.",
	}, []string{"op"})
	reg.MustRegister(httpDuration, ordersCreated, statusTransitions, checkoutRejected, cartMutations)

	m := &Metrics{
		httpDuration:      httpDuration,
		ordersCreated:     ordersCreated,
		statusTransitions: statusTransitions,
		checkoutRejected:  checkoutRejected,
		cartMutations:     cartMutations,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) IncOrderCreated(fulfillment string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(fulfillment)).Inc()
}

func (m *Metrics) IncStatusTransition(status string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) IncCheckoutRejected(reason string) {
	if m == nil || m.checkoutRejected == nil {
		return
	}
	m.checkoutRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
