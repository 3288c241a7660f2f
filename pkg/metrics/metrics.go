package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every collector exposed on /api/metrics
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	initOnce sync.Once

	// Custom histogram buckets for page and upstream latencies; generation calls
	// routinely take tens of seconds
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Auth provider client metrics
	AuthProviderRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_client_operation_duration_seconds",
			Help:    "Auth provider operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	AuthProviderRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_client_operation_total",
			Help: "Total number of auth provider operations",
		},
		[]string{"operation", "status"},
	)

	// Generation endpoint metrics
	GenerationRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_client_request_duration_seconds",
			Help:    "Lesson plan generation request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"status"},
	)

	// Business Metrics
	LessonPlanGenerations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escribo_lesson_plan_generations_total",
			Help: "Total lesson plan generation attempts",
		},
		[]string{"status"}, // success, remote_error, network_error, empty, no_session, in_flight
	)

	UserLogins = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escribo_user_logins_total",
			Help: "Total login attempts",
		},
		[]string{"status"},
	)

	UserRegistrations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escribo_user_registrations_total",
			Help: "Total registration attempts",
		},
		[]string{"status"},
	)

	SessionGuardChecks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escribo_session_guard_checks_total",
			Help: "Session guard outcomes on protected page loads",
		},
		[]string{"outcome"}, // ok, no_session, rejected
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// Init registers runtime collectors and the service info gauge.
// Safe to call more than once.
func Init(serviceName string) {
	initOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		info := factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "escribo_service_info",
				Help: "Static service information",
			},
			[]string{"service_name"},
		)
		info.WithLabelValues(serviceName).Set(1)
	})
}

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
