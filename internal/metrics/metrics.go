package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one process. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry setup.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	ordersCompleted     prometheus.Counter
	ingredientConsumed  *prometheus.CounterVec
	negativeStock       prometheus.Counter
	reportCache         *prometheus.CounterVec
}

func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return NewWithRegistry(prefix, reg, reg)
}

func NewWithRegistry(prefix string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		ordersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_orders_completed_total",
			Help: "Total number of orders moved to completed history",
		}),
		ingredientConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_ingredient_consumed_total",
			Help: "Ingredient quantity consumed by completed orders",
		}, []string{"ingredient", "unit"}),
		negativeStock: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_negative_stock_warnings_total",
			Help: "Total number of consumptions that left an ingredient below zero",
		}),
		reportCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_report_cache_lookups_total",
			Help: "Report cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method string, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func (m *Metrics) OrderCompleted() {
	if m == nil {
		return
	}
	m.ordersCompleted.Inc()
}

func (m *Metrics) IngredientConsumed(name string, unit string, qty float64) {
	if m == nil || qty <= 0 {
		return
	}
	m.ingredientConsumed.WithLabelValues(name, unit).Add(qty)
}

func (m *Metrics) NegativeStock() {
	if m == nil {
		return
	}
	m.negativeStock.Inc()
}

func (m *Metrics) ReportCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}
