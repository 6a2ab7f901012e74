package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_http_requests_total",
		Help: "HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapfeed_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapfeed_retention_sweeps_total",
		Help: "Completed retention sweeps.",
	})

	sweepDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapfeed_retention_deleted_items_total",
		Help: "Content items removed by the retention sweeper.",
	})

	sweepPartitionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapfeed_retention_partition_errors_total",
		Help: "Per-partition failures logged and skipped during sweeps.",
	})
)

// ObserveSweep records the outcome of one full retention sweep.
func ObserveSweep(deleted int, partitionErrors int) {
	sweepsTotal.Inc()
	sweepDeletedTotal.Add(float64(deleted))
	sweepPartitionErrors.Add(float64(partitionErrors))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency for every handled request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		requestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(srw.status)).Inc()
		requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
