package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the ledger service. All methods are
// safe on a nil receiver so services can run without instrumentation.
type Metrics struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	invoicesCreated      prometheus.Counter
	invoicesDeleted      prometheus.Counter
	entriesReclassified  prometheus.Counter
	notificationFailures *prometheus.CounterVec
	costRecomputes       prometheus.Counter
}

// NewMetrics initialises the registry and the service metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "purchase_invoices_created_total",
		Help: "Purchase invoices committed.",
	})
	deleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "purchase_invoices_deleted_total",
		Help: "Purchase invoices reversed.",
	})
	reclassified := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_entries_reclassified_total",
		Help: "Ledger entries moved from cost of goods to an operational category.",
	})
	notifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Post-commit notifications that could not be delivered.",
	}, []string{"type"})
	recomputes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "product_cost_recomputes_total",
		Help: "Ad hoc product cost recomputes.",
	})
	registry.MustRegister(requests, duration, created, deleted, reclassified, notifyFailures, recomputes)
	return &Metrics{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:        requests,
		requestDuration:      duration,
		invoicesCreated:      created,
		invoicesDeleted:      deleted,
		entriesReclassified:  reclassified,
		notificationFailures: notifyFailures,
		costRecomputes:       recomputes,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// InvoiceCreated counts a committed invoice.
func (m *Metrics) InvoiceCreated() {
	if m == nil {
		return
	}
	m.invoicesCreated.Inc()
}

// InvoiceDeleted counts a reversed invoice.
func (m *Metrics) InvoiceDeleted() {
	if m == nil {
		return
	}
	m.invoicesDeleted.Inc()
}

// EntriesReclassified counts ledger entries moved between categories.
func (m *Metrics) EntriesReclassified(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesReclassified.Add(float64(n))
}

// NotificationFailed counts a dropped notification.
func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(kind).Inc()
}

// CostRecomputed counts ad hoc recomputes.
func (m *Metrics) CostRecomputed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.costRecomputes.Add(float64(n))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
