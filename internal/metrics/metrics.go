// Package metrics defines the HTTP-layer Prometheus metrics for the
// debug/admin server in cmd/gcsfs-server. Block/stat cache metrics live
// in internal/statstap instead, since those are emitted by the facade
// itself, not by an HTTP handler.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

var sizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216, 67108864}

// HTTP metrics (RED: Rate, Errors, Duration).
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcsfs_http_requests_total",
			Help: "Total HTTP requests to the debug server",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gcsfs_http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gcsfs_http_request_size_bytes",
			Help:    "Request body size in bytes",
			Buckets: sizeBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gcsfs_http_response_size_bytes",
			Help:    "Response body size in bytes",
			Buckets: sizeBuckets,
		},
		[]string{"method", "path"},
	)

	BytesReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gcsfs_http_bytes_received_total",
			Help: "Total bytes received in request bodies",
		},
	)

	BytesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gcsfs_http_bytes_sent_total",
			Help: "Total bytes sent in response bodies",
		},
	)
)

// Register registers every collector with the default registry. Safe to
// call more than once; only the first call takes effect.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPRequestSize,
			HTTPResponseSize,
			BytesReceivedTotal,
			BytesSentTotal,
		)
	})
}

// NormalizePath maps a debug-server request path to a normalized
// template suitable as a Prometheus label, avoiding a high-cardinality
// label from individual gs:// paths passed as a query parameter.
func NormalizePath(path string) string {
	switch path {
	case "/health", "/healthz", "/readyz", "/metrics", "/openapi.json":
		return path
	case "/", "":
		return "/"
	}
	if strings.HasPrefix(path, "/docs") {
		return "/docs"
	}
	switch {
	case strings.HasPrefix(path, "/stat"):
		return "/stat"
	case strings.HasPrefix(path, "/list"):
		return "/list"
	case strings.HasPrefix(path, "/cat"):
		return "/cat"
	default:
		return path
	}
}
