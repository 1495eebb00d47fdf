package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLatency prometheus.Observer
	cacheWrite   prometheus.Observer
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter

	eligibleSelected     *prometheus.GaugeVec
	reconciliationCycles *prometheus.CounterVec
	assessmentsRequeued  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	eligibleSelected := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eligible_disbursements_selected",
		Help: "Schedules selected by the last eligibility read, per intensity",
	}, []string{"intensity"})

	reconciliationCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restriction_reconciliation_cycles_total",
		Help: "Restriction snapshot reconciliation cycles by outcome",
	}, []string{"outcome"})

	assessmentsRequeued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assessments_requeued_total",
		Help: "Stale assessment work items re-enqueued by the retry sweep",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite,
		cacheHits, cacheMisses, eligibleSelected, reconciliationCycles,
		assessmentsRequeued, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		eligibleSelected:     eligibleSelected,
		reconciliationCycles: reconciliationCycles,
		assessmentsRequeued:  assessmentsRequeued,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveCacheHit records a cache hit and its latency.
func (s *MetricsService) ObserveCacheHit(duration time.Duration) {
	s.cacheHits.Inc()
	s.cacheLatency.Observe(duration.Seconds())
}

// ObserveCacheMiss records a cache miss and its latency.
func (s *MetricsService) ObserveCacheMiss(duration time.Duration) {
	s.cacheMisses.Inc()
	s.cacheLatency.Observe(duration.Seconds())
}

// ObserveCacheWrite records a cache set latency.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	s.cacheWrite.Observe(duration.Seconds())
}

// ObserveEligibleSelection records the size of an eligibility read.
func (s *MetricsService) ObserveEligibleSelection(intensity string, count int) {
	s.eligibleSelected.WithLabelValues(intensity).Set(float64(count))
}

// ObserveReconciliationCycle counts one reconciliation run by outcome.
func (s *MetricsService) ObserveReconciliationCycle(outcome string) {
	s.reconciliationCycles.WithLabelValues(outcome).Inc()
}

// ObserveRequeuedAssessments counts re-enqueued stale work items.
func (s *MetricsService) ObserveRequeuedAssessments(count int) {
	s.assessmentsRequeued.Add(float64(count))
}
