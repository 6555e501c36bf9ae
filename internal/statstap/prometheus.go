package statstap

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Tap backed by package-level Prometheus collectors,
// following the teacher's internal/metrics package-var + sync.Once
// registration idiom.
type Prometheus struct {
	blockRequests  *prometheus.CounterVec
	blockBytes     *prometheus.CounterVec
	statRequests   *prometheus.CounterVec
}

var (
	registerOnce sync.Once
	shared       *Prometheus
)

// NewPrometheus returns a Tap registered against reg (or the default
// registerer, if reg is nil). Registration happens at most once per
// process; subsequent calls return the already-registered collectors so
// that constructing multiple FileSystems does not panic on duplicate
// registration.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	registerOnce.Do(func() {
		shared = &Prometheus{
			blockRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "gcsfs_block_requests_total",
				Help: "Total block fetches issued over the network by read operations.",
			}, []string{"path"}),
			blockBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "gcsfs_block_bytes_retrieved_total",
				Help: "Total bytes retrieved by block fetches over the network.",
			}, []string{"path"}),
			statRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "gcsfs_stat_requests_total",
				Help: "Total stat resolutions, labeled by cache hit/miss.",
			}, []string{"path", "outcome"}),
		}
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(shared.blockRequests, shared.blockBytes, shared.statRequests)
	})
	return shared
}

func (p *Prometheus) GotBlockRequest(path string, blockOffset int64) {
	p.blockRequests.WithLabelValues(path).Inc()
}

func (p *Prometheus) GotBlockRetrieved(path string, blockOffset int64, bytesRetrieved int64) {
	p.blockBytes.WithLabelValues(path).Add(float64(bytesRetrieved))
}

func (p *Prometheus) GotStatRequest(path string, cacheHit bool) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	p.statRequests.WithLabelValues(path, outcome).Inc()
}
