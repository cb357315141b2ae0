// Package metrics exposes allocator activity as Prometheus collectors, kept
// entirely outside of codegen so the core allocator stays free of anything
// that could retry, log, or block on its hot path.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder observes allocator events. The no-op Recorder is always valid;
// callers that don't want metrics can simply not set one.
type Recorder interface {
	BlockReserved(totalBlocks int)
	BytesPublished(n int)
	AllocationFailed(reason string)
}

type noopRecorder struct{}

func (noopRecorder) BlockReserved(int)       {}
func (noopRecorder) BytesPublished(int)      {}
func (noopRecorder) AllocationFailed(string) {}

// Noop returns a Recorder that discards every observation.
func Noop() Recorder { return noopRecorder{} }

// Prometheus collects allocator activity into a dedicated registry so
// multiple Engines (and their Recorders) can coexist without colliding on
// metric names.
type Prometheus struct {
	blocksLive     prometheus.Gauge
	bytesPublished prometheus.Counter
	allocFailures  *prometheus.CounterVec
}

// NewPrometheus registers allocator metrics on reg, labeled with engine,
// the owning engine's identifier.
func NewPrometheus(reg prometheus.Registerer, engine string) *Prometheus {
	p := &Prometheus{
		blocksLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "codealloc",
			Name:        "blocks_live",
			Help:        "Number of virtual memory blocks currently reserved by the allocator.",
			ConstLabels: prometheus.Labels{"engine": engine},
		}),
		bytesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "codealloc",
			Name:        "bytes_published_total",
			Help:        "Total bytes of data+code published as executable memory.",
			ConstLabels: prometheus.Labels{"engine": engine},
		}),
		allocFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "codealloc",
			Name:        "allocation_failures_total",
			Help:        "Allocation failures by taxonomy reason.",
			ConstLabels: prometheus.Labels{"engine": engine},
		}, []string{"reason"}),
	}
	reg.MustRegister(p.blocksLive, p.bytesPublished, p.allocFailures)
	return p
}

func (p *Prometheus) BlockReserved(totalBlocks int) { p.blocksLive.Set(float64(totalBlocks)) }
func (p *Prometheus) BytesPublished(n int)          { p.bytesPublished.Add(float64(n)) }
func (p *Prometheus) AllocationFailed(reason string) {
	p.allocFailures.WithLabelValues(reason).Inc()
}
