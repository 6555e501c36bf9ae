package metrics

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/docs", "/docs"},
		{"/docs/", "/docs"},
		{"/docs/something", "/docs"},
		{"/metrics", "/metrics"},
		{"/openapi.json", "/openapi.json"},
		{"/", "/"},
		{"", "/"},
		{"/stat", "/stat"},
		{"/list", "/list"},
		{"/cat", "/cat"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := NormalizePath(tt.path)
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMetricsRegisteredWithoutPanicking(t *testing.T) {
	Register()
	HTTPRequestsTotal.WithLabelValues("GET", "/stat", "200").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/stat").Observe(0.001)
	HTTPRequestSize.WithLabelValues("GET", "/cat").Observe(1024)
	HTTPResponseSize.WithLabelValues("GET", "/cat").Observe(2048)
	BytesReceivedTotal.Add(1024)
	BytesSentTotal.Add(2048)
}
